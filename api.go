package dalleboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/dalleboard/imagegen"
	"github.com/eringen/dalleboard/store"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Photo string `json:"photo"`
}

type createPostRequest struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	Photo  string `json:"photo"`
}

// postResponse is the envelope every /api/v1/post reply uses.
type postResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

func handleAPIRoot(c echo.Context) error {
	return c.String(http.StatusOK, "Hello from DALL-E!")
}

func handleDalleGreeting(c echo.Context) error {
	return c.String(http.StatusOK, "Let's go DALL-E!")
}

// handleGenerate returns one generated image as bare base64. Upstream failures
// come back as a 500 whose body is the provider's message in plain text.
func (a *App) handleGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.String(http.StatusBadRequest, "prompt is required")
	}
	photo, err := a.Images.Generate(c.Request().Context(), req.Prompt)
	if err != nil {
		c.Logger().Errorf("generate image: %v", err)
		return c.String(http.StatusInternalServerError, imagegen.ErrorMessage(err))
	}
	return c.JSON(http.StatusOK, generateResponse{Photo: photo})
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Posts.ListPosts(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list posts: %v", err)
		return c.JSON(http.StatusInternalServerError, postResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, postResponse{Success: true, Data: posts})
}

func (a *App) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, postResponse{Message: "invalid request body"})
	}
	post, err := a.Posts.CreatePost(c.Request().Context(), store.Post{
		Name:   req.Name,
		Prompt: req.Prompt,
		Photo:  req.Photo,
	})
	switch {
	case errors.Is(err, store.ErrInvalidPost):
		return c.JSON(http.StatusBadRequest, postResponse{Message: err.Error()})
	case err != nil:
		c.Logger().Errorf("create post: %v", err)
		return c.JSON(http.StatusInternalServerError, postResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, postResponse{Success: true, Data: post})
}

func (a *App) handleRandomPrompt(c echo.Context) error {
	prompt, err := a.Prompts.Pick(c.QueryParam("current"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, promptResponse{Prompt: prompt})
}
