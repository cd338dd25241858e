// Package config defines the immutable shape the CLI front end (an
// external collaborator, see spec §1) must populate before handing
// control to the pipeline. Nothing in this package parses flags or
// environment variables; it only validates and stores values.
package config

import "fmt"

// StorageType enumerates the supported object-store backends. Unlike
// the original implementation, an unrecognized string is a
// configuration error, not a silent fallback to Fs (Design Note
// "String fallback on enum parse").
type StorageType int

const (
	StorageFs StorageType = iota
	StorageS3
	StorageAzure
)

func (t StorageType) String() string {
	switch t {
	case StorageFs:
		return "fs"
	case StorageS3:
		return "s3"
	case StorageAzure:
		return "azure"
	default:
		return "invalid"
	}
}

// ParseStorageType validates s against the known set of backend names.
func ParseStorageType(s string) (StorageType, error) {
	switch s {
	case "fs":
		return StorageFs, nil
	case "s3":
		return StorageS3, nil
	case "azure":
		return StorageAzure, nil
	default:
		return 0, fmt.Errorf("config: unknown storage type %q (want fs, s3, or azure)", s)
	}
}

// FsConfig configures the local filesystem backend.
type FsConfig struct {
	DataPath string
}

// S3Config configures the S3-compatible backend.
type S3Config struct {
	Region                 string
	EndpointURL            string
	AccessKeyID            string
	SecretAccessKey        string
	Bucket                 string
	Root                   string
	EnableVirtualHostStyle bool
}

// AzblobConfig configures the Azure Blob Storage backend.
type AzblobConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	EndpointURL string
	Root        string
}

// StorageConfig selects and configures exactly one backend.
type StorageConfig struct {
	Type   StorageType
	Fs     FsConfig
	S3     S3Config
	Azblob AzblobConfig
}

// Chain identifies the chain adapter to use. Only "eth" is implemented;
// the type exists so a second adapter can be added without reshaping
// Config (spec Non-goals: no cross-chain abstraction beyond a
// pluggable chain adapter).
type Chain string

const ChainEth Chain = "eth"

// Config is the immutable set of parameters the pipeline runs with.
// Construct it with New; once built, no field is ever mutated.
type Config struct {
	Start       uint64
	End         uint64
	BatchSize   uint64
	WorkerCount int
	RPCURL      string
	Chain       Chain
	RPCBatchSize int
	OutputPath  string
	Storage     StorageConfig

	// ProgressInterval is how often the progress logger prints a rate/ETA
	// line. Zero disables periodic logging.
	ProgressInterval Seconds

	Retry RetryConfig
}

// Seconds is a small named type so config literals read naturally
// ("ProgressInterval: Seconds(10)") without pulling in time.Duration
// arithmetic in the config shape itself.
type Seconds int

// RetryConfig configures the backoff policy (component A).
type RetryConfig struct {
	InitialDelayMS int
	Factor         float64
	MaxDelayMS     int
	MaxElapsedMS   int
}

// DefaultRetryConfig mirrors spec §4.A's defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelayMS: 250,
		Factor:         2.0,
		MaxDelayMS:     30_000,
		MaxElapsedMS:   15 * 60 * 1000,
	}
}

// New validates and constructs a Config. It is the only way to obtain
// one; every field is considered immutable afterwards.
func New(
	start, end, batchSize uint64,
	workerCount int,
	rpcURL string,
	chain Chain,
	outputPath string,
	storage StorageConfig,
) (*Config, error) {
	if end < start {
		return nil, fmt.Errorf("config: end block %d is before start block %d", end, start)
	}
	if batchSize == 0 {
		return nil, fmt.Errorf("config: batch size must be positive")
	}
	if workerCount <= 0 {
		return nil, fmt.Errorf("config: worker count must be positive")
	}
	if rpcURL == "" {
		return nil, fmt.Errorf("config: rpc url is required")
	}
	if chain != ChainEth {
		return nil, fmt.Errorf("config: unsupported chain %q", chain)
	}
	return &Config{
		Start:            start,
		End:              end,
		BatchSize:        batchSize,
		WorkerCount:      workerCount,
		RPCURL:           rpcURL,
		Chain:            chain,
		RPCBatchSize:     50,
		OutputPath:       outputPath,
		Storage:          storage,
		ProgressInterval: 10,
		Retry:            DefaultRetryConfig(),
	}, nil
}

// MaskSecret redacts s for diagnostic output, revealing at most the
// last unmaskLen characters (spec §6; original_source
// common/configs/src/storage.rs mask_string).
func MaskSecret(s string, unmaskLen int) string {
	if len(s) <= unmaskLen {
		return s
	}
	return "******" + s[len(s)-unmaskLen:]
}

// String renders c with all credential fields masked, safe for logs.
func (c StorageConfig) String() string {
	switch c.Type {
	case StorageS3:
		return fmt.Sprintf(
			"S3{endpoint:%s region:%s bucket:%s root:%s access_key_id:%s secret_access_key:%s virtual_host_style:%t}",
			c.S3.EndpointURL, c.S3.Region, c.S3.Bucket, c.S3.Root,
			MaskSecret(c.S3.AccessKeyID, 3), MaskSecret(c.S3.SecretAccessKey, 3),
			c.S3.EnableVirtualHostStyle,
		)
	case StorageAzure:
		return fmt.Sprintf(
			"Azblob{endpoint:%s container:%s root:%s account_name:%s account_key:%s}",
			c.Azblob.EndpointURL, c.Azblob.Container, c.Azblob.Root,
			MaskSecret(c.Azblob.AccountName, 3), MaskSecret(c.Azblob.AccountKey, 3),
		)
	default:
		return fmt.Sprintf("Fs{data_path:%s}", c.Fs.DataPath)
	}
}
