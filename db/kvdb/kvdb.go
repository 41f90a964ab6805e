package kvdb

const (
	// ProjectsBucket maps a project id to its ProjectMetadata (JSON).
	ProjectsBucket = "projects"
	// RequestsBucket maps an index build request id to its progress status.
	RequestsBucket = "requests"
)

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	Close() error
}
