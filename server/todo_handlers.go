package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/taskvault/taskvault"
)

type todoBody struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (b todoBody) validate(requireTitle bool) error {
	if requireTitle && b.Title == "" {
		return goerrors.New("title is required", goerrors.CategoryValidation).
			WithTextCode(taskvault.TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}
	if b.Priority != "" && !taskvault.IsValidPriority(b.Priority) {
		return goerrors.New("priority must be low, medium, or high", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func sessionUserID(c *fiber.Ctx) (uuid.UUID, error) {
	identity := currentIdentity(c)
	if identity == nil {
		return uuid.Nil, taskvault.ErrTokenMissing
	}
	id, err := uuid.Parse(identity.ID())
	if err != nil {
		return uuid.Nil, taskvault.ErrTokenMalformed
	}
	return id, nil
}

func todoIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed todo id").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func (s *Server) handleCreateTodo(c *fiber.Ctx) error {
	userID, err := sessionUserID(c)
	if err != nil {
		return err
	}

	body := todoBody{}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}
	if err := body.validate(true); err != nil {
		return err
	}

	todo, err := s.opts.Repo.Todos().Create(c.UserContext(), &taskvault.Todo{
		UserID:      userID,
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"todo":    todo,
	})
}

func (s *Server) handleListTodos(c *fiber.Ctx) error {
	userID, err := sessionUserID(c)
	if err != nil {
		return err
	}

	todos, err := s.opts.Repo.Todos().ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"todos":   todos,
	})
}

func (s *Server) handleGetTodo(c *fiber.Ctx) error {
	userID, err := sessionUserID(c)
	if err != nil {
		return err
	}

	todoID, err := todoIDParam(c)
	if err != nil {
		return err
	}

	todo, err := s.opts.Repo.Todos().GetByID(c.UserContext(), userID, todoID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"todo":    todo,
	})
}

func (s *Server) handleUpdateTodo(c *fiber.Ctx) error {
	userID, err := sessionUserID(c)
	if err != nil {
		return err
	}

	todoID, err := todoIDParam(c)
	if err != nil {
		return err
	}

	body := todoBody{}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}
	if err := body.validate(false); err != nil {
		return err
	}

	todo, err := s.opts.Repo.Todos().GetByID(c.UserContext(), userID, todoID)
	if err != nil {
		return err
	}

	if body.Title != "" {
		todo.Title = body.Title
	}
	if body.Description != "" {
		todo.Description = body.Description
	}
	if body.Priority != "" {
		todo.Priority = body.Priority
	}
	if body.DueDate != nil {
		todo.DueDate = body.DueDate
	}

	todo, err = s.opts.Repo.Todos().Update(c.UserContext(), todo)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"todo":    todo,
	})
}

func (s *Server) handleDeleteTodo(c *fiber.Ctx) error {
	userID, err := sessionUserID(c)
	if err != nil {
		return err
	}

	todoID, err := todoIDParam(c)
	if err != nil {
		return err
	}

	if err := s.opts.Repo.Todos().Delete(c.UserContext(), userID, todoID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "todo deleted",
	})
}
