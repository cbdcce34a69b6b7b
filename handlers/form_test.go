package handlers

import (
	"consult_flow_app_go/models"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intakeTemplateBody() map[string]interface{} {
	return map[string]interface{}{
		"name":     "Family Intake",
		"category": "family",
		"fields": []map[string]interface{}{
			{
				"field_key":   "mood",
				"label":       "How is your mood?",
				"field_type":  "select",
				"is_required": true,
				"risk_weight": 2,
				"options": []map[string]interface{}{
					{"label": "Calm", "value": "calm", "risk_score": 0},
					{"label": "Low", "value": "low", "risk_score": 8},
				},
			},
			{
				"field_key":   "sleep",
				"label":       "How do you sleep?",
				"field_type":  "radio",
				"risk_weight": 1,
				"options": []map[string]interface{}{
					{"label": "Fine", "value": "ok", "risk_score": 0},
					{"label": "Poorly", "value": "poor", "risk_score": 5},
				},
			},
			{
				"field_key":         "details",
				"label":             "Tell us more",
				"field_type":        "textarea",
				"is_required":       true,
				"conditional_logic": map[string]interface{}{"field_key": "mood", "operator": "equals", "value": "low"},
			},
		},
	}
}

func TestFormTemplateHandlers(t *testing.T) {
	database := setupTestDB(t)
	e := setupEcho()
	admin := createUser(t, database, "Admin", models.RoleAdmin)
	client := createUser(t, database, "Client", models.RoleUser)

	rec := doRequest(t, e, http.MethodPost, "/api/form-templates", admin.ID, intakeTemplateBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var template models.FormTemplate
	decodeJSON(t, rec, &template)
	assert.False(t, template.IsActive)
	require.Len(t, template.Fields, 3)

	t.Run("Only admins manage templates", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/form-templates", client.ID, intakeTemplateBody())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Rejects malformed rules and unknown field types", func(t *testing.T) {
		body := intakeTemplateBody()
		fields := body["fields"].([]map[string]interface{})
		fields[2]["conditional_logic"] = map[string]interface{}{"field_key": "mood", "operator": "between"}
		assert.Equal(t, http.StatusBadRequest, doRequest(t, e, http.MethodPost, "/api/form-templates", admin.ID, body).Code)

		body = intakeTemplateBody()
		body["fields"].([]map[string]interface{})[0]["field_type"] = "slider"
		assert.Equal(t, http.StatusBadRequest, doRequest(t, e, http.MethodPost, "/api/form-templates", admin.ID, body).Code)
	})

	t.Run("Inactive templates cannot be submitted", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/form-submissions", client.ID, map[string]interface{}{
			"template_id": template.ID,
			"answers":     []map[string]interface{}{{"field_key": "mood", "value": "calm"}},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	rec = doRequest(t, e, http.MethodPost, "/api/form-templates/"+template.ID+"/activate", admin.ID, map[string]bool{"make_default": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("Default lookup", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodGet, "/api/form-templates/default?category=family", client.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var found models.FormTemplate
		decodeJSON(t, rec, &found)
		assert.Equal(t, template.ID, found.ID)

		assert.Equal(t, http.StatusBadRequest, doRequest(t, e, http.MethodGet, "/api/form-templates/default", client.ID, nil).Code)
	})

	t.Run("Submission is validated and scored", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/form-submissions", client.ID, map[string]interface{}{
			"template_id": template.ID,
			"answers": []map[string]interface{}{
				{"field_key": "mood", "value": "low"},
				{"field_key": "sleep", "value": "poor"},
			},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "details")

		rec = doRequest(t, e, http.MethodPost, "/api/form-submissions", client.ID, map[string]interface{}{
			"template_id": template.ID,
			"answers": []map[string]interface{}{
				{"field_key": "mood", "value": "low"},
				{"field_key": "sleep", "value": "poor"},
				{"field_key": "details", "value": "Hard month"},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var submission models.FormSubmission
		decodeJSON(t, rec, &submission)
		// mood 2+8, sleep 1+5
		assert.Equal(t, 16, submission.TotalRiskScore)
		assert.Equal(t, models.RiskLevelHigh, submission.RiskLevel)

		rec = doRequest(t, e, http.MethodPost, "/api/form-submissions/"+submission.ID+"/score", admin.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rescored models.FormSubmission
		decodeJSON(t, rec, &rescored)
		assert.Equal(t, 16, rescored.TotalRiskScore)
	})

	t.Run("Duplicate and delete", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/form-templates/"+template.ID+"/duplicate", admin.ID, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		var copied models.FormTemplate
		decodeJSON(t, rec, &copied)
		assert.Equal(t, "Family Intake (Copy)", copied.Name)
		assert.False(t, copied.IsActive)

		assert.Equal(t, http.StatusNoContent, doRequest(t, e, http.MethodDelete, "/api/form-templates/"+copied.ID, admin.ID, nil).Code)
		assert.Equal(t, http.StatusNotFound, doRequest(t, e, http.MethodDelete, "/api/form-templates/"+copied.ID, admin.ID, nil).Code)
	})

	t.Run("Unknown submission", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/form-submissions/missing/score", admin.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
