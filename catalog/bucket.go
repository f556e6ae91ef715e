package catalog

// BucketBackend names which storage driver a bucket is backed by. Only the
// identity is tracked here; the driver implementation lives outside the
// catalog (spec §4.9, Non-goal: "no bundled cloud storage driver").
type BucketBackend string

const (
	BackendMemory BucketBackend = "memory"
	BackendFile   BucketBackend = "file"
)

// Bucket is a DEFINE BUCKET entry: a named blob namespace that File values
// address via "bucket:key".
type Bucket struct {
	Version     uint16
	Namespace   string
	Database    string
	Name        string
	Backend     BucketBackend
	BackendPath string // filesystem root or connection string, backend-specific
	ReadOnly    bool
	Permissions *Permissions
	Comment     string
}

// Revision implements Revisioned.
func (b Bucket) Revision() uint16 { return b.Version }
