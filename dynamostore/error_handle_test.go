package dynamostore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestReturnStringTransactionCanceled(t *testing.T) {
	err := &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String(None)},
			{Code: aws.String(ConditionalCheckFailed), Message: aws.String(ConditionalReqFailedMessage)},
		},
	}
	assert.Equal(t, "condition failed : "+ConditionalReqFailedMessage, ReturnString(fmt.Errorf("commit: %w", err)))

	err = &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{{Code: aws.String(ValidationError)}},
	}
	assert.Equal(t, "validation failed : "+ValidationError, ReturnString(err))

	err = &types.TransactionCanceledException{Message: aws.String("Transaction cancelled")}
	assert.Equal(t, "transaction canceled : Transaction cancelled", ReturnString(err))
}

func TestReturnStringAPIError(t *testing.T) {
	err := &smithy.GenericAPIError{Code: ValidationException, Message: "key element does not match the schema"}
	assert.Equal(t, "validation failed : key element does not match the schema", ReturnString(err))

	err = &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	assert.Equal(t, "ThrottlingException : slow down", ReturnString(err))
}

func TestReturnStringPlain(t *testing.T) {
	assert.Equal(t, "", ReturnString(nil))
	assert.Equal(t, "operation failed : dial tcp: refused", ReturnString(errors.New("dial tcp: refused")))
}
