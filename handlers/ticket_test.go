package handlers

import (
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketHandlers(t *testing.T) {
	database := setupTestDB(t)
	e := setupEcho()

	expert := createConsultant(t, database, "Expert", models.ConsultantLevelExpert, "psychology")
	junior := createConsultant(t, database, "Junior", models.ConsultantLevelJunior, "psychology")
	client := createUser(t, database, "Client", models.RoleUser)
	stranger := createUser(t, database, "Stranger", models.RoleUser)
	admin := createUser(t, database, "Admin", models.RoleAdmin)

	rec := doRequest(t, e, http.MethodPost, "/api/tickets", client.ID, map[string]interface{}{
		"category":    "psychology",
		"description": "Sering halusinasi dan mendengar suara",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var intake services.IntakeResult
	decodeJSON(t, rec, &intake)
	require.True(t, intake.Routed)
	assert.Equal(t, expert.ID, intake.ConsultantID)
	assert.Equal(t, models.RiskLevelHigh, intake.Ticket.RiskLevel)
	ticketID := intake.Ticket.ID

	t.Run("Visibility", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doRequest(t, e, http.MethodGet, "/api/tickets/"+ticketID, client.ID, nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(t, e, http.MethodGet, "/api/tickets/"+ticketID, expert.UserID, nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(t, e, http.MethodGet, "/api/tickets/"+ticketID, admin.ID, nil).Code)
		assert.Equal(t, http.StatusNotFound, doRequest(t, e, http.MethodGet, "/api/tickets/"+ticketID, stranger.ID, nil).Code)
		assert.Equal(t, http.StatusNotFound, doRequest(t, e, http.MethodGet, "/api/tickets/missing", admin.ID, nil).Code)
	})

	t.Run("Override requires an admin and a reason", func(t *testing.T) {
		body := map[string]interface{}{"consultant_id": junior.ID, "reason": "Client asked for a change"}
		assert.Equal(t, http.StatusForbidden, doRequest(t, e, http.MethodPost, "/api/tickets/"+ticketID+"/override", client.ID, body).Code)

		rec := doRequest(t, e, http.MethodPost, "/api/tickets/"+ticketID+"/override", admin.ID, map[string]interface{}{"consultant_id": junior.ID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doRequest(t, e, http.MethodPost, "/api/tickets/"+ticketID+"/override", admin.ID, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stored models.ConsultationTicket
		require.NoError(t, database.First(&stored, "id = ?", ticketID).Error)
		assert.Equal(t, junior.ID, *stored.ConsultantID)
		assert.Nil(t, stored.RoutingScore)
		assert.Equal(t, models.AssignedByAdmin, *stored.AssignedByType)
	})

	t.Run("Re-routing through the engine", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/tickets/"+ticketID+"/assign", admin.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			ConsultantID string `json:"consultant_id"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, expert.ID, resp.ConsultantID)
	})

	t.Run("Collaborator approval", func(t *testing.T) {
		path := "/api/tickets/" + ticketID + "/collaborators"
		rec := doRequest(t, e, http.MethodPost, path, expert.UserID, map[string]interface{}{"consultant_id": junior.ID})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = doRequest(t, e, http.MethodPost, path, expert.UserID, map[string]interface{}{"consultant_id": junior.ID})
		assert.Equal(t, http.StatusConflict, rec.Code)

		msg := map[string]interface{}{"body": "Hello", "internal": true}
		assert.Equal(t, http.StatusForbidden, doRequest(t, e, http.MethodPost, "/api/tickets/"+ticketID+"/messages", junior.UserID, msg).Code)

		approve := path + "/" + junior.ID + "/approve"
		assert.Equal(t, http.StatusForbidden, doRequest(t, e, http.MethodPost, approve, stranger.ID, nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(t, e, http.MethodPost, approve, client.ID, nil).Code)

		assert.Equal(t, http.StatusCreated, doRequest(t, e, http.MethodPost, "/api/tickets/"+ticketID+"/messages", junior.UserID, msg).Code)
	})

	t.Run("Status transitions", func(t *testing.T) {
		path := "/api/tickets/" + ticketID + "/status"
		outsider := createConsultant(t, database, "Outsider", models.ConsultantLevelSenior, "family")
		assert.Equal(t, http.StatusForbidden, doRequest(t, e, http.MethodPatch, path, client.ID, map[string]string{"status": "in_progress"}).Code)
		assert.Equal(t, http.StatusForbidden, doRequest(t, e, http.MethodPatch, path, outsider.UserID, map[string]string{"status": "in_progress"}).Code)
		assert.Equal(t, http.StatusNotFound, doRequest(t, e, http.MethodPatch, "/api/tickets/missing/status", expert.UserID, map[string]string{"status": "in_progress"}).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, e, http.MethodPatch, path, expert.UserID, map[string]string{"status": "archived"}).Code)
		assert.Equal(t, http.StatusConflict, doRequest(t, e, http.MethodPatch, path, expert.UserID, map[string]string{"status": "completed"}).Code)
		assert.Equal(t, http.StatusOK, doRequest(t, e, http.MethodPatch, path, expert.UserID, map[string]string{"status": "in_progress"}).Code)
	})
}

func TestCreateTicketHandlerUnrouted(t *testing.T) {
	database := setupTestDB(t)
	e := setupEcho()
	client := createUser(t, database, "Client", models.RoleUser)

	rec := doRequest(t, e, http.MethodPost, "/api/tickets", client.ID, map[string]interface{}{
		"category":    "legal",
		"description": "Need advice about a contract",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var intake services.IntakeResult
	decodeJSON(t, rec, &intake)
	assert.False(t, intake.Routed)
	assert.Equal(t, models.TicketStatusWaiting, intake.Ticket.Status)

	rec = doRequest(t, e, http.MethodPost, "/api/tickets", client.ID, map[string]interface{}{"description": "<b></b>"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, e, http.MethodPost, "/api/tickets", client.ID, map[string]interface{}{
		"description":        "hello",
		"form_submission_id": "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
