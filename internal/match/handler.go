package match

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snowpoint-games/arcade-backend/internal/engine"
	"github.com/snowpoint-games/arcade-backend/internal/persist"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/middleware"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/reject"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
)

type matchHandler struct {
	registry *Registry
	gateway  persist.Gateway
}

func RegisterRoutes(rg *gin.RouterGroup, registry *Registry, gateway persist.Gateway) {
	handler := matchHandler{
		registry: registry,
		gateway:  gateway,
	}

	routes := rg.Group("/matches")
	routes.POST("", middleware.VerifyAuthToken, handler.createMatch)
	routes.GET("/history", middleware.VerifyAuthToken, handler.getHistory)
	routes.GET("/:id", middleware.VerifyAuthToken, handler.getMatchState)
	routes.POST("/:id/moves", middleware.VerifyAuthToken, handler.playMove)
	routes.POST("/:id/void", middleware.VerifyAuthToken, handler.voidMatch)

	rooms := rg.Group("/rooms")
	rooms.GET("/:room/matches", handler.listActiveInRoom)
}

func (mh *matchHandler) createMatch(c *gin.Context) {
	body := Challenge{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	if body.SideA.PlayerId == "" || body.SideB.PlayerId == "" || body.SideA.PlayerId == body.SideB.PlayerId {
		c.JSON(http.StatusBadRequest, reject.RequestValidationProblem())
		return
	}

	playerId := utils.GetUserExternalId(c)
	if body.SideA.PlayerId != playerId && body.SideB.PlayerId != playerId {
		problem := rejectionFor(ErrNotInMatch)
		c.JSON(problem.Status, problem)
		return
	}

	m, err := mh.registry.CreateMatch(body)
	if err != nil {
		problem := rejectionFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	view, viewErr := mh.registry.GetMatchState(m.Id, playerId)
	if viewErr != nil {
		problem := rejectionFor(viewErr)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (mh *matchHandler) playMove(c *gin.Context) {
	body := engine.Action{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	result, err := mh.registry.PlayMove(c.Param("id"), utils.GetUserExternalId(c), body)
	if err != nil {
		problem := rejectionFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (mh *matchHandler) getMatchState(c *gin.Context) {
	view, err := mh.registry.GetMatchState(c.Param("id"), utils.GetUserExternalId(c))
	if err != nil {
		problem := rejectionFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, view)
}

type VoidMatchRequest struct {
	Reason string `json:"reason"`
}

func (mh *matchHandler) voidMatch(c *gin.Context) {
	body := VoidMatchRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}
	if body.Reason == "" {
		body.Reason = "cancelled"
	}

	info, err := mh.registry.VoidMatch(c.Param("id"), body.Reason)
	if err != nil {
		problem := rejectionFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (mh *matchHandler) listActiveInRoom(c *gin.Context) {
	c.JSON(http.StatusOK, mh.registry.ListActiveInRoom(c.Param("room")))
}

func (mh *matchHandler) getHistory(c *gin.Context) {
	page, pageErr := utils.NewPageRequest(c)
	if pageErr != nil {
		c.JSON(pageErr.Problem.Status, pageErr.Problem)
		return
	}

	playerId := utils.GetUserExternalId(c)
	records, count, err := mh.gateway.ListFinished(page, playerId)
	if err != nil {
		problem := reject.UnexpectedProblem(err)
		c.JSON(problem.Status, problem)
		return
	}

	response := utils.NewPageResponse[model.MatchRecord]().
		WithItems(records).
		WithNextPageFrom(page, count)

	c.JSON(http.StatusOK, response.Build())
}

// rejectionFor maps lifecycle and rule errors onto client problems.
// Anything without a code is an unexpected failure.
func rejectionFor(err error) reject.Problem {
	coded, ok := err.(interface{ Code() string })
	if !ok {
		return reject.UnexpectedProblem(err)
	}

	status := http.StatusBadRequest
	switch coded.Code() {
	case "MATCH_NOT_FOUND":
		return reject.NotFoundProblem()
	case "NOT_IN_MATCH":
		status = http.StatusForbidden
	case "MATCH_NOT_ACTIVE", "ALREADY_IN_MATCH", "ALREADY_SELECTED":
		status = http.StatusConflict
	case "INSUFFICIENT_BALANCE":
		status = http.StatusPaymentRequired
	}

	return reject.NewProblem().
		WithTitle("Match request rejected").
		WithStatus(status).
		WithCode(coded.Code()).
		Build()
}
