package kitchenposserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/Apurer/kitchenpos-api/internal/domains/orders/application"
	apierrors "github.com/Apurer/kitchenpos-api/internal/shared/errors"
)

var problems = apierrors.NewChainedResponder("", orderProblem)

// orderProblem maps the orders application error kinds onto RFC 7807 problems.
func orderProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrDomainRule):
		return apierrors.ErrDomainRule.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problems.RespondError(c, err)
}

func respondBindingError(c *gin.Context, err error) {
	apierrors.Respond(c, apierrors.FromBindingError(err))
}
