package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
)

// ContentHandler serves content CRUD.
type ContentHandler struct {
	service ports.ContentService
}

func NewContentHandler(service ports.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Create handles POST /contents.
//
// @Summary      Create content (editor, admin)
// @Tags         contents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createContentRequest  true  "Content"
// @Success      201   {object}  domain.Content
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /contents [post]
func (h *ContentHandler) Create(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createContentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	content, err := h.service.Create(c.Request().Context(), ports.CreateContentInput{
		Title:       req.Title,
		Description: req.Description,
		Blocks:      toBlocks(req.Blocks),
	}, actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, content)
}

// List handles GET /contents.
//
// @Summary      List contents
// @Tags         contents
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        search  query     string  false  "Match on title or description"
// @Success      200     {object}  contentsPage
// @Router       /contents [get]
func (h *ContentHandler) List(c echo.Context) error {
	page, limit := pageParams(c)

	res, err := h.service.List(c.Request().Context(), page, limit, c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contentsPage{
		Data:       res.Items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// ListByUser handles GET /contents/user/:userId.
//
// @Summary      List contents created by a user
// @Tags         contents
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "Creator id"
// @Success      200     {array}   domain.Content
// @Failure      400     {object}  errorResponse
// @Router       /contents/user/{userId} [get]
func (h *ContentHandler) ListByUser(c echo.Context) error {
	items, err := h.service.ListByCreator(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Content{}
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /contents/:id.
//
// @Summary      Get content
// @Tags         contents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Content id"
// @Success      200  {object}  domain.Content
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /contents/{id} [get]
func (h *ContentHandler) Get(c echo.Context) error {
	content, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, content)
}

// Update handles PATCH /contents/:id.
//
// @Summary      Update content (editor, admin)
// @Tags         contents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Content id"
// @Param        body  body      updateContentRequest  true  "Fields to change"
// @Success      200   {object}  domain.Content
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /contents/{id} [patch]
func (h *ContentHandler) Update(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateContentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateContentInput{Title: req.Title, Description: req.Description}
	if req.Blocks != nil {
		blocks := toBlocks(*req.Blocks)
		in.Blocks = &blocks
	}

	content, err := h.service.Update(c.Request().Context(), c.Param("id"), in, actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, content)
}

// Delete handles DELETE /contents/:id and returns the removed document.
//
// @Summary      Delete content (editor, admin)
// @Tags         contents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Content id"
// @Success      200  {object}  domain.Content
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /contents/{id} [delete]
func (h *ContentHandler) Delete(c echo.Context) error {
	content, err := h.service.Remove(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, content)
}
