package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/evaluation"
)

type evaluationApi struct {
	svc      *evaluation.Service
	validate *validator.Validate
}

func registerEvaluationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *evaluation.Service,
	validate *validator.Validate,
) {
	api := evaluationApi{
		svc:      svc,
		validate: validate,
	}

	g.GET("/catalog", api.catalog, jwt)

	sg := g.Group("/submissions", jwt)
	sg.GET("", api.list)
	sg.POST("", api.create, roleMiddleware(evaluation.RoleFaculty))
	sg.GET("/current", api.current, roleMiddleware(evaluation.RoleFaculty))
	sg.GET("/review-queue", api.reviewQueue, roleMiddleware(evaluation.RoleHOD, evaluation.RoleCommittee, evaluation.RoleAdmin))

	// detail endpoints
	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/progress", api.progress)
	dg.GET("/actions", api.actions)
	dg.PUT("/modules/:module", api.replaceEntries)
	dg.POST("/modules/:module/entries", api.addEntry)
	dg.PATCH("/modules/:module/entries/:entry", api.updateEntry)
	dg.DELETE("/modules/:module/entries/:entry", api.removeEntry)
	dg.POST("/submit", api.submit)
	dg.POST("/approve", api.approve)
	dg.POST("/reject", api.reject)
	dg.POST("/lock", api.lock)
}

// Handlers

func (api *evaluationApi) catalog(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, CatalogResponse{
		Modules:   evaluation.Catalog(),
		MaxPoints: evaluation.CatalogMaxPoints(),
		Year:      api.svc.CurrentAcademicYear(),
	})
}

func (api *evaluationApi) list(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var query ListRequest
	if err = ctx.Bind(&query); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Submission{})
	}
	subs, err := api.svc.List(
		ctx.Request().Context(),
		actor,
		query.filter(),
		bindOrdering(ctx, evaluation.OrderingFields...)...,
	)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []evaluation.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *evaluationApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data CreateSubmissionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateSubmissionRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubmission(ctx.Request().Context(), actor, data.AcademicYear)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *evaluationApi) current(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetOrCreateCurrent(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "getting current submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) reviewQueue(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.ReviewQueue(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "getting review queue")
	}
	if subs == nil {
		subs = []evaluation.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) progress(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, sub.Progress())
}

func (api *evaluationApi) actions(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}

	actions := evaluation.AllowedActions(sub.Status, actor.Role)
	if actions == nil {
		actions = []evaluation.Action{}
	}
	return ctx.JSON(http.StatusOK, ActionsResponse{
		Status:   sub.Status,
		Editable: sub.IsEditable() && actor.ID == sub.FacultyID,
		Actions:  actions,
	})
}

func (api *evaluationApi) replaceEntries(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data ModuleEntriesRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleEntriesRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	sub, err := api.svc.UpdateModuleEntries(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("module"), data.Entries)
	if err != nil {
		return errors.Wrap(err, "updating module entries")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) addEntry(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, entryID, err := api.svc.AddEntry(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("module"))
	if err != nil {
		return errors.Wrap(err, "adding entry")
	}
	return ctx.JSON(http.StatusCreated, EntryResponse{EntryID: entryID, Submission: sub})
}

func (api *evaluationApi) updateEntry(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data evaluation.EntryUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryUpdate")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	sub, err := api.svc.UpdateEntry(
		ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("module"), ctx.Param("entry"), data,
	)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) removeEntry(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.RemoveEntry(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("module"), ctx.Param("entry"))
	if err != nil {
		return errors.Wrap(err, "removing entry")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) submit(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.SubmitForReview(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "submitting for review")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) approve(ctx echo.Context) error {
	return api.review(ctx, api.svc.Approve)
}

func (api *evaluationApi) reject(ctx echo.Context) error {
	return api.review(ctx, api.svc.Reject)
}

type reviewFunc func(ctx context.Context, actor evaluation.Actor, id, remarks string) (evaluation.Submission, error)

func (api *evaluationApi) review(ctx echo.Context, fn reviewFunc) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data ReviewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}

	sub, err := fn(ctx.Request().Context(), actor, ctx.Param("id"), data.Remarks)
	if err != nil {
		return errors.Wrap(err, "reviewing submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *evaluationApi) lock(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Lock(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "locking submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

type (
	CatalogResponse struct {
		Modules   []evaluation.ModuleDefinition `json:"modules"`
		MaxPoints int                           `json:"max_points"`
		Year      string                        `json:"academic_year"`
	}

	ListRequest struct {
		Statuses     []string `query:"status"`
		AcademicYear string   `query:"academic_year"`
		Department   string   `query:"department"`
		FacultyID    string   `query:"faculty_id"`
	}

	CreateSubmissionRequest struct {
		AcademicYear string `json:"academic_year" validate:"required,academic_year"`
	}

	ModuleEntriesRequest struct {
		Entries []evaluation.EntryInput `json:"entries" validate:"dive"`
	}

	EntryResponse struct {
		EntryID    string                `json:"entry_id"`
		Submission evaluation.Submission `json:"submission"`
	}

	ReviewRequest struct {
		Remarks string `json:"remarks"`
	}

	ActionsResponse struct {
		Status   evaluation.Status   `json:"status"`
		Editable bool                `json:"editable"`
		Actions  []evaluation.Action `json:"actions"`
	}
)

func (lr ListRequest) filter() *evaluation.QueryFilter {
	filter := &evaluation.QueryFilter{
		AcademicYear: lr.AcademicYear,
		Department:   lr.Department,
		FacultyID:    lr.FacultyID,
	}
	for _, st := range lr.Statuses {
		filter.Statuses = append(filter.Statuses, evaluation.Status(st))
	}
	return filter
}

func (cr *CreateSubmissionRequest) Validate(validate *validator.Validate) error {
	cr.AcademicYear = core.CleanString(cr.AcademicYear)
	return validate.Struct(cr)
}
