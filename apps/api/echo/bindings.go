package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/fpms/core"
)

const orderingParam = "ordering"

// bindOrdering reads the `ordering` query param, e.g. "-total_score,submitted_at".
// Fields outside allowed are ignored.
func bindOrdering(ctx echo.Context, allowed ...string) []core.DBOrdering {
	return core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}
