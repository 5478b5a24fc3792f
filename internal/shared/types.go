package shared

const (
	AwsIamRole  string = "AWS::IAM::Role"
	AwsS3Bucket string = "AWS::S3::Bucket"

	// variables for retrieving the audit run config file from s3
	EnvBucketName    string = "AUDIT_CONFIG_BUCKET_NAME"
	EnvConfigFileKey string = "AUDIT_CONFIG_FILE_KEY"
)

// Key is a composite primary/sort key for the map-backed stores.
type Key struct {
	PrimaryKey string `json:"primaryKey"`
	SortKey    string `json:"sortKey"`
}

func (k *Key) ToString() string {
	return k.PrimaryKey + "||" + k.SortKey
}
