package config

import (
	"os"
	"strconv"
)

// Supported backend drivers.
const (
	DocStorePostgres  = "postgres"
	DocStoreMongo     = "mongo"
	DocStoreFirestore = "firestore"

	BlobStoreMinIO = "minio"
	BlobStoreS3    = "s3"
)

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// FirestoreConfig holds Cloud Firestore settings.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// DocStoreConfig selects and configures the recipe document store.
type DocStoreConfig struct {
	Driver    string
	CacheSize int
	Database  DatabaseConfig
	Mongo     MongoConfig
	Firestore FirestoreConfig
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Config holds settings for AWS S3 or any S3-compatible endpoint.
type S3Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
	UsePathStyle bool
}

// BlobStoreConfig selects and configures the picture store.
type BlobStoreConfig struct {
	Driver        string
	Prefix        string
	PublicBaseURL string
	// ServeImages makes image URLs point at the app's own /images route
	// when no public base URL is set.
	ServeImages   bool
	URLExpirySec  int
	MinIO         MinIOConfig
	S3            S3Config
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	BodyLimitMB int
	Owner       string
	Log         LogConfig
	DocStore    DocStoreConfig
	BlobStore   BlobStoreConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 10),
		Owner:       getEnv("RECIPE_OWNER", "Home Cook"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		DocStore: DocStoreConfig{
			Driver:    getEnv("DOCSTORE_DRIVER", DocStorePostgres),
			CacheSize: getEnvInt("RECIPE_CACHE_SIZE", 0),
			Database: DatabaseConfig{
				Host:               getEnv("DB_HOST", ""),
				Port:               getEnv("DB_PORT", "5432"),
				User:               getEnv("DB_USER", ""),
				Password:           getEnv("DB_PASSWORD", ""),
				Name:               getEnv("DB_NAME", ""),
				SSLMode:            getEnv("DB_SSLMODE", "disable"),
				MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
				MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
				ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
				AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
			},
			Mongo: MongoConfig{
				URI:      getEnv("MONGO_URI", ""),
				Database: getEnv("MONGO_DATABASE", "recipebox"),
			},
			Firestore: FirestoreConfig{
				ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
				CredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
			},
		},
		BlobStore: BlobStoreConfig{
			Driver:        getEnv("BLOBSTORE_DRIVER", BlobStoreMinIO),
			Prefix:        getEnv("BLOBSTORE_PREFIX", "recipe_pictures"),
			PublicBaseURL: getEnv("BLOBSTORE_PUBLIC_BASE_URL", ""),
			ServeImages:   getEnvBool("BLOBSTORE_SERVE_IMAGES", false),
			URLExpirySec:  getEnvInt("BLOBSTORE_URL_EXPIRY_SEC", 7*24*60*60),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Region:       getEnv("S3_REGION", "us-east-1"),
				Bucket:       getEnv("S3_BUCKET", ""),
				AccessKey:    getEnv("S3_ACCESS_KEY", ""),
				SecretKey:    getEnv("S3_SECRET_KEY", ""),
				Endpoint:     getEnv("S3_ENDPOINT", ""),
				UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
			},
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
