// Package s3 provides S3 implementations of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("terms/prod/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = snapshot.Save(ctx, store, "snap-000001.trm", prog)
//
// # Features
//
//   - Ranged GETs for partial snapshot reads
//   - Streaming multipart uploads with CRC32C validation
//   - Automatic pagination for listing
//   - Configurable prefix for keeping several programs in one bucket
//   - CommitStore: DynamoDB-guarded CURRENT pointer for concurrent writers
//   - ExpressStore: directory buckets with conditional-write commits
package s3
