package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/insight-engine/internal/metrics"
)

// summaryTTL is how long run summaries live in DynamoDB.
const summaryTTL = 90 * 24 * time.Hour

const sortKeyLayout = "2006-01-02T15:04:05Z"

// S3PutAPI is the part of the S3 client the store needs.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes artifacts to bucket/prefix.
type S3Store struct {
	client S3PutAPI
	bucket string
	prefix string
}

// NewS3Store creates a store from a resolved AWS config.
func NewS3Store(awsCfg aws.Config, bucket, prefix string) *S3Store {
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), bucket, prefix)
}

// NewS3StoreWithClient wires an existing client.
func NewS3StoreWithClient(client S3PutAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Save puts the object and returns its s3:// URI.
func (s *S3Store) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	key := path.Join(s.prefix, clean)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object to S3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// DynamoPutAPI is the part of the DynamoDB client the index needs.
type DynamoPutAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBItem represents a run summary stored in DynamoDB
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Dataset   string `dynamodbav:"Dataset"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
	TTL       int64  `dynamodbav:"TTL,omitempty"`
}

// DynamoSummaryIndex keeps one item per run, keyed RUN#<id>.
type DynamoSummaryIndex struct {
	client    DynamoPutAPI
	tableName string
	now       func() time.Time
}

// NewDynamoSummaryIndex creates an index from a resolved AWS config.
func NewDynamoSummaryIndex(awsCfg aws.Config, tableName string) *DynamoSummaryIndex {
	return NewDynamoSummaryIndexWithClient(dynamodb.NewFromConfig(awsCfg), tableName)
}

// NewDynamoSummaryIndexWithClient wires an existing client.
func NewDynamoSummaryIndexWithClient(client DynamoPutAPI, tableName string) *DynamoSummaryIndex {
	return &DynamoSummaryIndex{client: client, tableName: tableName, now: time.Now}
}

func runKey(runID string) string { return "RUN#" + runID }

// SaveSummary writes the summary as JSON with a 90 day TTL.
func (d *DynamoSummaryIndex) SaveSummary(ctx context.Context, runID, dataset string, summary metrics.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	now := d.now().UTC()
	item := DynamoDBItem{
		PK:        runKey(runID),
		SK:        now.Format(sortKeyLayout),
		Dataset:   dataset,
		Data:      string(data),
		Timestamp: now.Format(time.RFC3339),
		TTL:       now.Add(summaryTTL).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

// GetSummary returns the latest summary stored for runID, or nil when none.
func (d *DynamoSummaryIndex) GetSummary(ctx context.Context, runID string) (metrics.Summary, error) {
	result, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: runKey(runID)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item DynamoDBItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("unmarshaling item: %w", err)
	}
	var s metrics.Summary
	if err := json.Unmarshal([]byte(item.Data), &s); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return s, nil
}
