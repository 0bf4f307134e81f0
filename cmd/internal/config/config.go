package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

const envVarsPrefix = "/casetrack/prod/"

type Config struct {
	Production bool

	HTTPAddr     string
	DatabasePath string
	LogLevel     log.Lvl
	MachineID    int64

	AWSRegion         string
	JWKSURL           string
	ArchiveBucket     string
	WSGatewayEndpoint string

	ActivityBuffer    int
	IntegritySchedule string
	RunMigrations     bool
}

// Load exports the environment (AWS SSM Parameter Store in production,
// an optional .env file otherwise) and parses it into a Config.
func Load(ctx context.Context) (*Config, error) {
	prod := os.Getenv("GO_ENV") == "production"
	if prod {
		if err := loadProdEnv(ctx); err != nil {
			return nil, err
		}
	} else {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to load .env: %w", err)
		}
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Production = prod
	return cfg, nil
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	machineID, err := intEnv("MACHINE_ID", 1)
	if err != nil {
		return nil, err
	}

	buffer, err := intEnv("ACTIVITY_BUFFER", 256)
	if err != nil {
		return nil, err
	}
	if buffer <= 0 {
		return nil, errors.New("ACTIVITY_BUFFER must be positive")
	}

	runMigrations, err := boolEnv("RUN_MIGRATIONS", true)
	if err != nil {
		return nil, err
	}

	region := stringEnv("AWS_REGION", "us-east-2")
	jwksURL := os.Getenv("JWKS_URL")
	if poolID := os.Getenv("COGNITO_POOL_ID"); jwksURL == "" && poolID != "" {
		// URL where Cognito publishes its public keys
		jwksURL = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, poolID)
	}

	return &Config{
		HTTPAddr:          stringEnv("HTTP_ADDR", ":7070"),
		DatabasePath:      stringEnv("DATABASE_PATH", "database.db"),
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),
		MachineID:         int64(machineID),
		AWSRegion:         region,
		JWKSURL:           jwksURL,
		ArchiveBucket:     os.Getenv("S3_ARCHIVE_BUCKET"),
		WSGatewayEndpoint: os.Getenv("WS_GATEWAY_ENDPOINT"),
		ActivityBuffer:    buffer,
		IntegritySchedule: stringEnv("INTEGRITY_SCHEDULE", "@every 1h"),
		RunMigrations:     runMigrations,
	}, nil
}

func loadProdEnv(ctx context.Context) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(stringEnv("AWS_REGION", "us-east-2")))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	count := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("unable to load prod environment: %w", err)
		}

		// Export vars
		for _, param := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(param.Name), envVarsPrefix)
			if err := os.Setenv(key, aws.ToString(param.Value)); err != nil {
				return fmt.Errorf("unable to set environment variable %s: %w", key, err)
			}
			count++
		}
	}

	log.Debugf("loaded %d prod environment variables", count)
	return nil
}

func stringEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def, nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
