package dynamostore

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/transport/http"
)

const (
	None                            = "None"
	ValidationException             = "ValidationException"
	ValidationError                 = "ValidationError"
	ConditionalCheckFailedException = "ConditionalCheckFailedException"
	ConditionalCheckFailed          = "ConditionalCheckFailed"
	TransactionConflict             = "TransactionConflict"
	TransactionCanceledException    = "TransactionCanceledException"
	ConditionalReqFailedMessage     = "The conditional request failed"
)

// ReturnString turns a store error into the human-readable reason written to
// a rejected object's return-string attribute.
func ReturnString(inputErr error) string {
	if inputErr == nil {
		return ""
	}

	var (
		code     int
		httpErr  *http.ResponseError
		txApiErr *types.TransactionCanceledException
		apiError smithy.APIError
	)

	if errors.As(inputErr, &httpErr) && httpErr.Response != nil && httpErr.Response.Response != nil {
		code = httpErr.Response.StatusCode
	}

	if errors.As(inputErr, &txApiErr) {
		for _, reason := range txApiErr.CancellationReasons {
			if reason.Message != nil && *reason.Message == ConditionalReqFailedMessage {
				return fmt.Sprintf("condition failed : %s", *reason.Message)
			}

			if reason.Code == nil || *reason.Code == None {
				continue
			}

			switch *reason.Code {
			case ConditionalCheckFailed, ConditionalCheckFailedException:
				return "condition failed : " + reasonMessage(reason, *reason.Code)
			case ValidationError:
				return "validation failed : " + reasonMessage(reason, *reason.Code)
			case TransactionConflict:
				return "transaction conflict : " + reasonMessage(reason, *reason.Code)
			default:
				return fmt.Sprintf("transaction canceled : %s", reasonMessage(reason, *reason.Code))
			}
		}

		return fmt.Sprintf("transaction canceled : %s", txApiErr.ErrorMessage())
	}

	if errors.As(inputErr, &apiError) {
		if code == 500 {
			return fmt.Sprintf("internal error : %s", apiError.ErrorMessage())
		}

		switch apiError.ErrorCode() {
		case ValidationException:
			return "validation failed : " + apiError.ErrorMessage()
		case ConditionalCheckFailedException:
			return "condition failed : " + apiError.ErrorMessage()
		}

		return fmt.Sprintf("%s : %s", apiError.ErrorCode(), apiError.ErrorMessage())
	}

	if code == 500 {
		return fmt.Sprintf("internal error : %v", inputErr)
	}

	return fmt.Sprintf("operation failed : %v", inputErr)
}

func reasonMessage(reason types.CancellationReason, fallback string) string {
	if reason.Message != nil && *reason.Message != "" {
		return *reason.Message
	}
	return fallback
}
