package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// Pricer handles one pricing request mapping.
type Pricer interface {
	Handle(ctx context.Context, params map[string]string) model.Response
}

type Handler struct {
	Logger  *zap.Logger
	Service Pricer
}

// PriceQuery prices the request carried in the query string.
func (h *Handler) PriceQuery(c *fiber.Ctx) error {
	return h.respond(c, c.Queries())
}

// PriceBody prices a JSON object of string (or numeric) values.
func (h *Handler) PriceBody(c *fiber.Ctx) error {
	params, err := decodeParams(c.Body())
	if err != nil {
		h.Logger.Debug("api.price.bad_body", zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(model.Response{
			StatusCode: http.StatusBadRequest,
			Body:       "Request body must be a JSON object of string or numeric values",
		})
	}
	return h.respond(c, params)
}

func (h *Handler) respond(c *fiber.Ctx, params map[string]string) error {
	resp := h.Service.Handle(c.UserContext(), params)
	return c.Status(resp.StatusCode).JSON(resp)
}

func decodeParams(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("body is not an object")
	}

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			params[k] = tv
		case json.Number:
			params[k] = tv.String()
		case bool:
			params[k] = strconv.FormatBool(tv)
		default:
			return nil, fmt.Errorf("field %q has unsupported type %T", k, v)
		}
	}
	return params, nil
}
