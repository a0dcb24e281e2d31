package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/pkg/errcode"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
	"github.com/kbhavake/dentalgpt/internal/service"
)

type PatientHandler struct {
	patients *service.PatientService
	queries  *service.QueryService
}

func NewPatientHandler(patients *service.PatientService, queries *service.QueryService) *PatientHandler {
	return &PatientHandler{patients: patients, queries: queries}
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req service.PatientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	patient, err := h.patients.Create(c.Request.Context(), getUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, patient)
}

func (h *PatientHandler) List(c *gin.Context) {
	patients, err := h.patients.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, patients)
}

func (h *PatientHandler) Get(c *gin.Context) {
	patient, err := h.patients.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, patient)
}

func (h *PatientHandler) Update(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	patient, err := h.patients.Update(c.Request.Context(), getUserID(c), c.Param("id"), fields)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, patient)
}

// History returns the patient record together with the last ten answered
// questions linked to it.
func (h *PatientHandler) History(c *gin.Context) {
	patient, logs, err := h.queries.PatientHistory(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"patient": patient, "queries": logs})
}
