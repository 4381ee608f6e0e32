package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/metrics"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

const BackendDynamoDB = "dynamodb"

// PutItemAPI is the subset of the DynamoDB client used by DynamoWriter.
type PutItemAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoWriter stores audit records as items of string attributes.
type DynamoWriter struct {
	client PutItemAPI
	table  string
	logger *zap.Logger
}

func NewDynamoWriter(client PutItemAPI, table string, logger *zap.Logger) *DynamoWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoWriter{client: client, table: table, logger: logger}
}

// Write puts the record unless an item with its run_id already exists.
func (w *DynamoWriter) Write(ctx context.Context, rec model.AuditRecord) error {
	start := time.Now()
	_, err := w.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(w.table),
		Item:                Item(rec),
		ConditionExpression: aws.String("attribute_not_exists(run_id)"),
	})
	metrics.ObserveDuration(metrics.AuditWriteDuration, start, BackendDynamoDB)

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		err = fmt.Errorf("%w: run_id %s", ErrDuplicateRecord, rec.RunID)
	} else if err != nil {
		err = fmt.Errorf("dynamodb put %s: %w", w.table, err)
	}
	metrics.IncAuditWrite(BackendDynamoDB, result(err))

	if err != nil {
		w.logger.Debug("audit.dynamodb.put_failed",
			zap.String("table", w.table),
			zap.String("run_id", rec.RunID),
			zap.Error(err))
		return err
	}

	w.logger.Debug("audit.dynamodb.put",
		zap.String("table", w.table),
		zap.String("run_id", rec.RunID))
	return nil
}

// Item converts a record into DynamoDB attributes, all of type S.
// Absent optional fields produce no attribute.
func Item(rec model.AuditRecord) map[string]types.AttributeValue {
	s := func(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

	item := map[string]types.AttributeValue{
		model.FieldProduct:     s(rec.Product),
		model.FieldCreditRisk:  s(rec.CreditRisk),
		model.FieldTerm:        s(rec.Term),
		model.FieldAmount:      s(rec.Amount),
		model.FieldLoanID:      s(rec.LoanID),
		"run_id":               s(rec.RunID),
		"date":                 s(rec.Date),
		"price":                s(rec.Price),
		model.FieldUserName:    s(rec.UserName),
		model.FieldSourceName:  s(rec.SourceName),
		model.FieldPricingType: s(rec.PricingType),
	}
	if rec.LoanToValue != nil {
		item[model.FieldLoanToValue] = s(*rec.LoanToValue)
	}
	if rec.DeRunID != nil {
		item[model.FieldDeRunID] = s(*rec.DeRunID)
	}
	return item
}
