package driver

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrAPOCUnavailable is returned by CheckAPOC when the APOC merge procedures are missing.
var ErrAPOCUnavailable = errors.New("apoc procedures are not available")

type Neo4jDriver struct {
	Driver   neo4j.DriverWithContext
	Database string
}

func NewNeo4jDriver(ctx context.Context, uri, username, password, database string) (*Neo4jDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}

	log.Printf("Connected to Neo4j at %s", uri)
	return &Neo4jDriver{Driver: driver, Database: database}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.Database))
	}
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	return BuildIndices(ctx, d)
}

// BuildIndices creates the lookup indexes used by ingestion. The vector index is
// created lazily by EnsureVectorIndex once the embedding dimension is known.
func BuildIndices(ctx context.Context, d GraphDriver) error {
	for _, q := range IndexQueries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}
	return nil
}

// EnsureVectorIndex creates the parent chunk vector index if it does not exist yet.
func EnsureVectorIndex(ctx context.Context, d GraphDriver, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimensions)
	}
	if _, err := d.ExecuteQuery(ctx, VectorIndexQuery(dimensions), nil); err != nil {
		return fmt.Errorf("failed to create vector index %s: %w", ParentChunkIndex, err)
	}
	return nil
}

// CheckAPOC verifies that the procedures used to merge extracted entities are installed.
func CheckAPOC(ctx context.Context, d GraphDriver) error {
	res, err := d.ExecuteQuery(ctx, CheckAPOCQuery, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPOCUnavailable, err)
	}
	if len(res.Records) == 0 {
		return ErrAPOCUnavailable
	}
	count, _, err := neo4j.GetRecordValue[int64](res.Records[0], "count")
	if err != nil || count < 2 {
		return ErrAPOCUnavailable
	}
	return nil
}
