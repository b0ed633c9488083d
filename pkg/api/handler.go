// Package api serves the chat widget's requests through API Gateway.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/assistant"
	"github.com/City-Bureau/careerchat/pkg/chat"
)

// Routes, as configured on the API Gateway resource tree
const (
	chatResource     = "/chat/{id}"
	messagesResource = "/chat/{id}/messages"
	toggleResource   = "/chat/{id}/toggle"
)

// Handler answers chat widget requests
type Handler struct {
	Store        assistant.Store
	NewResponder assistant.ResponderFactory
	Logger       *zap.Logger
}

// SubmitRequest is the body of a message submission
type SubmitRequest struct {
	Text string `json:"text"`
}

// StateResponse wraps the read model the widget renders
type StateResponse struct {
	ID    string                 `json:"id"`
	State chat.ConversationState `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler is a constructor for Handler structs
func NewHandler(store assistant.Store, newResponder assistant.ResponderFactory, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, NewResponder: newResponder, Logger: logger}
}

// Handle routes one API Gateway request
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := request.PathParameters["id"]
	if id == "" {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "missing chat id"})
	}

	switch {
	case request.Resource == chatResource && request.HTTPMethod == http.MethodGet:
		return h.withChat(id, request, false, func(c *assistant.AssistantChat) (int, error) {
			return http.StatusOK, nil
		})
	case request.Resource == messagesResource && request.HTTPMethod == http.MethodPost:
		var body SubmitRequest
		if err := json.Unmarshal([]byte(request.Body), &body); err != nil {
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		}
		return h.withChat(id, request, true, func(c *assistant.AssistantChat) (int, error) {
			return h.submit(ctx, c, body.Text)
		})
	case request.Resource == messagesResource && request.HTTPMethod == http.MethodDelete:
		return h.withChat(id, request, true, func(c *assistant.AssistantChat) (int, error) {
			return http.StatusOK, c.Reset()
		})
	case request.Resource == toggleResource && request.HTTPMethod == http.MethodPost:
		return h.withChat(id, request, true, func(c *assistant.AssistantChat) (int, error) {
			c.ToggleOpen()
			return http.StatusOK, nil
		})
	}
	return jsonResponse(http.StatusNotFound, errorResponse{Error: "not found"})
}

func (h *Handler) submit(ctx context.Context, c *assistant.AssistantChat, text string) (int, error) {
	accepted, err := c.Submit(text)
	if err != nil || !accepted {
		return http.StatusOK, err
	}
	if _, err := c.ResolveAndRespond(ctx); err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}

func (h *Handler) withChat(id string, request events.APIGatewayProxyRequest, save bool, fn func(*assistant.AssistantChat) (int, error)) (events.APIGatewayProxyResponse, error) {
	c, err := h.Store.Open(id)
	if err != nil {
		h.Logger.Error("opening chat", zap.String("id", id), zap.Error(err))
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "could not load chat"})
	}
	c.Logger = h.Logger
	if lang := header(request, "Accept-Language"); lang != "" {
		c.SetLanguage(assistant.SupportedLanguage(lang))
	}
	if h.NewResponder != nil {
		c.Responder = h.NewResponder(c.Language)
	}

	status, err := fn(c)
	if errors.Is(err, assistant.ErrResponsePending) {
		return jsonResponse(http.StatusConflict, errorResponse{Error: err.Error()})
	}
	if err != nil {
		h.Logger.Error("handling chat request", zap.String("id", id), zap.Error(err))
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "could not update chat"})
	}

	if save {
		if err := h.Store.Save(c); err != nil {
			h.Logger.Error("saving chat", zap.String("id", id), zap.Error(err))
			return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "could not save chat"})
		}
	}
	return jsonResponse(status, StateResponse{ID: id, State: c.State()})
}

func jsonResponse(status int, body interface{}) (events.APIGatewayProxyResponse, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		Body:       string(bodyJSON),
		Headers:    map[string]string{"content-type": "application/json"},
		StatusCode: status,
	}, nil
}

func header(request events.APIGatewayProxyRequest, name string) string {
	for key, value := range request.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}
