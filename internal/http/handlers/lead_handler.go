// Lead capture HTTP handler.
//
// This file exposes the single lead endpoint:
//   - POST    {base}/guardar-lead  (store the lead, forward a conversion event)
//   - OPTIONS {base}/guardar-lead  (pre-flight, empty 200)
//   - any other method            (405)
//
// The handler is transport-thin: it gates on method, decodes the form fields
// leniently, calls the lead service, and maps the result to a response.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-lead-capture/internal/capi"
	"github.com/tbourn/go-lead-capture/internal/domain"
	"github.com/tbourn/go-lead-capture/internal/http/middleware"
	"github.com/tbourn/go-lead-capture/internal/services"
)

// LeadService runs a submission through the capture flow.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation.
type LeadService interface {
	Submit(ctx context.Context, sub domain.LeadSubmission) (*services.SubmitResult, error)
}

// Handlers groups the HTTP endpoints. It depends on the service interface
// only, so tests can substitute a stub.
type Handlers struct {
	leadSvc LeadService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(leadSvc LeadService) *Handlers {
	return &Handlers{leadSvc: leadSvc}
}

//
// DTOs
//

// LeadRequest is the JSON payload posted by the landing-page form. Every
// field is optional and stored as received.
type LeadRequest struct {
	Nombre    *string `json:"nombre"    example:"Juan"`
	Apellido  *string `json:"apellido"  example:"Perez"`
	Telefono  *string `json:"telefono"  example:"5551234"`
	Email     *string `json:"email"     example:"juan@test.com"`
	Direccion *string `json:"direccion" example:"Calle 1"`
}

// LeadResponse is the success body of the lead endpoint. Data holds the
// inserted rows exactly as the store returned them.
type LeadResponse struct {
	Success bool         `json:"success" example:"true"`
	Message string       `json:"message" example:"Lead guardado y enviado a CAPI"`
	Data    []domain.Row `json:"data" swaggertype:"array,object"`
}

//
// Handlers
//

// Lead godoc
// @ID          saveLead
// @Summary     Capture a lead
// @Description Stores the submitted contact fields and forwards a hashed Lead conversion event. The forward is best-effort and never changes the response. OPTIONS answers pre-flight with an empty 200; other methods get 405.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LeadRequest  false  "Lead form fields"
//
// @Success     200  {object}  handlers.LeadResponse
// @Failure     405  {object}  handlers.ErrorResponse  "Method not allowed"
// @Failure     500  {object}  handlers.ErrorResponse  "Store write failed (raw store message)"
// @Router      /guardar-lead [post]
// @Router      /guardar-lead [options]
func (h *Handlers) Lead(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		empty(c, http.StatusOK)
	case http.MethodPost:
		h.saveLead(c)
	default:
		fail(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	}
}

func (h *Handlers) saveLead(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	sub, derr := decodeSubmission(raw)
	if derr != nil {
		lg.Warn().Err(derr).Int("bytes_in", len(raw)).Msg("lead body is not a JSON object; treating fields as absent")
	}

	res, err := h.leadSvc.Submit(c.Request.Context(), sub)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	logForward(lg, res.Forward)

	rows := res.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	ok(c, http.StatusOK, LeadResponse{Success: true, Message: MsgLeadSaved, Data: rows})
}

// decodeSubmission reads the five form fields from a JSON object. A field
// that is missing, null, or not a string is absent. An empty or non-object
// body yields an empty submission; the error is returned for logging only.
func decodeSubmission(raw []byte) (domain.LeadSubmission, error) {
	var sub domain.LeadSubmission
	if len(bytes.TrimSpace(raw)) == 0 {
		return sub, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return sub, err
	}
	sub.FirstName = stringField(obj, "nombre")
	sub.LastName = stringField(obj, "apellido")
	sub.Phone = stringField(obj, "telefono")
	sub.Email = stringField(obj, "email")
	sub.Address = stringField(obj, "direccion")
	return sub, nil
}

func stringField(obj map[string]json.RawMessage, key string) *string {
	v, found := obj[key]
	if !found {
		return nil
	}
	var s *string
	if json.Unmarshal(v, &s) != nil {
		return nil
	}
	return s
}

// logForward reports the conversion forward outcome. It never affects the
// HTTP response.
func logForward(lg *zerolog.Logger, out services.ForwardOutcome) {
	switch out.Status {
	case services.ForwardDelivered:
		ev := lg.Info().Str("capi_outcome", out.Status)
		if r := out.Receipt; r != nil {
			ev = ev.Int("capi_status", r.StatusCode).
				Int("events_received", r.EventsReceived).
				Str("fbtrace_id", r.FBTraceID).
				Dur("capi_latency", r.Latency)
		}
		ev.Msg("conversion event delivered")
	case services.ForwardFailed:
		ev := lg.Error().Str("capi_outcome", out.Status).Err(out.Err)
		var de *capi.DeliveryError
		if errors.As(out.Err, &de) {
			ev = ev.Str("capi_stage", de.Stage).Int("capi_status", de.StatusCode)
		}
		ev.Msg("conversion event not delivered")
	default:
		lg.Debug().Str("capi_outcome", out.Status).Msg("conversion forwarding disabled")
	}
}
