package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorInfo struct {
	messageID  string
	grpcCode   codes.Code
	httpStatus int
}

var errorTable = map[error]errorInfo{
	model.ErrValidation:              {"error.validation", codes.InvalidArgument, http.StatusBadRequest},
	model.ErrNotFound:                {"error.not_found", codes.NotFound, http.StatusNotFound},
	model.ErrPriceMismatch:           {"error.price_mismatch", codes.FailedPrecondition, http.StatusConflict},
	model.ErrInsufficientStock:       {"error.insufficient_stock", codes.FailedPrecondition, http.StatusConflict},
	model.ErrIncompletePayment:       {"error.incomplete_payment", codes.FailedPrecondition, http.StatusUnprocessableEntity},
	model.ErrPaymentExceedsRemaining: {"error.payment_exceeds_remaining", codes.FailedPrecondition, http.StatusUnprocessableEntity},
	model.ErrAlreadyFullyPaid:        {"error.already_fully_paid", codes.FailedPrecondition, http.StatusConflict},
	model.ErrInvalidAmount:           {"error.invalid_amount", codes.InvalidArgument, http.StatusBadRequest},
	model.ErrLoanCancelled:           {"error.loan_cancelled", codes.FailedPrecondition, http.StatusConflict},
	model.ErrPersistence:             {"error.persistence", codes.Internal, http.StatusInternalServerError},
}

var internalError = errorInfo{"error.internal", codes.Internal, http.StatusInternalServerError}

func lookup(err error) errorInfo {
	switch {
	case errors.Is(err, context.Canceled):
		return errorInfo{"error.internal", codes.Canceled, 499}
	case errors.Is(err, context.DeadlineExceeded):
		return errorInfo{"error.internal", codes.DeadlineExceeded, http.StatusGatewayTimeout}
	}
	if info, ok := errorTable[model.Kind(err)]; ok {
		return info
	}
	return internalError
}

func GRPCCode(err error) codes.Code { return lookup(err).grpcCode }

func HTTPStatus(err error) int { return lookup(err).httpStatus }

// ErrorResponse is the REST error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorMapper turns use case errors into localized transport errors.
type ErrorMapper struct {
	tr     *i18n.Translator
	logger logger.ZapLogger
}

func NewErrorMapper(tr *i18n.Translator, log logger.ZapLogger) *ErrorMapper {
	return &ErrorMapper{tr: tr, logger: log}
}

func (m *ErrorMapper) response(ctx context.Context, err error) (errorInfo, ErrorResponse) {
	info := lookup(err)
	resp := ErrorResponse{
		Code:    info.messageID,
		Message: m.tr.Localize(info.messageID, Language(ctx)),
	}
	// internal details stay in the logs
	if info.grpcCode == codes.Internal {
		m.logger.Error("request failed", zap.Error(err))
	} else {
		resp.Detail = err.Error()
	}
	return info, resp
}

// GRPC converts err to a status error. Business errors keep their detail.
func (m *ErrorMapper) GRPC(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	info, resp := m.response(ctx, err)
	msg := resp.Message
	if resp.Detail != "" {
		msg += " (" + resp.Detail + ")"
	}
	return status.Error(info.grpcCode, msg)
}

// Gin aborts the request with the REST rendering of err.
func (m *ErrorMapper) Gin(c *gin.Context, err error) {
	info, resp := m.response(requestContext(c), err)
	c.AbortWithStatusJSON(info.httpStatus, gin.H{"error": resp})
}
