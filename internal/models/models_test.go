package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority(" HIGH ")
	require.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)
}

func TestStoredDocument_Matches(t *testing.T) {
	doc := StoredDocument{
		Title:      "Platform Safety Circular",
		Type:       "Safety Document",
		Department: "Safety",
		Summary: Summary{
			Headline:  "Barrier maintenance at Aluva",
			KeyPoints: []string{"Daily briefings are mandatory"},
			Detailed:  "Workers must wear hard hats.",
		},
	}

	assert.True(t, doc.Matches(""))
	assert.True(t, doc.Matches("platform"))
	assert.True(t, doc.Matches("ALUVA"))
	assert.True(t, doc.Matches("briefings"))
	assert.True(t, doc.Matches("hard hats"))
	assert.False(t, doc.Matches("revenue"))
}

func TestStoredDocument_ApplyKeepsUnspecifiedFields(t *testing.T) {
	doc := StoredDocument{
		Title:           "Old",
		Department:      "Finance",
		Priority:        PriorityLow,
		OriginalContent: "body",
		Analysis:        DocumentAnalysis{Entities: []string{"KMRL"}, Confidence: 80, Language: "English"},
	}

	title := "New"
	high := PriorityHigh
	doc.Apply(DocumentPatch{Title: &title, Priority: &high})

	assert.Equal(t, "New", doc.Title)
	assert.Equal(t, PriorityHigh, doc.Priority)
	assert.Equal(t, "Finance", doc.Department)
	assert.Equal(t, "body", doc.OriginalContent)
	assert.Equal(t, []string{"KMRL"}, doc.Analysis.Entities)
	assert.Equal(t, 80, doc.Analysis.Confidence)
}

func TestConnection_UnmarshalSelectsConfigVariant(t *testing.T) {
	raw := `{
		"name": "Ops inbox",
		"type": "email",
		"status": "pending",
		"syncFrequency": "hourly",
		"config": {"server": "imap.example.com", "port": 993, "username": "ops@example.com", "password": "secret"}
	}`

	var conn Connection
	require.NoError(t, json.Unmarshal([]byte(raw), &conn))

	cfg, ok := conn.Config.(*EmailConfig)
	require.True(t, ok, "expected *EmailConfig, got %T", conn.Config)
	assert.Equal(t, 993, cfg.Port)
	assert.NoError(t, conn.Validate())
}

func TestConnection_ValidateRejectsBadConfig(t *testing.T) {
	conn := Connection{
		Name:   "Scanner",
		Type:   ConnectionScanner,
		Config: &ScannerConfig{ScannerIP: "not-an-ip", ScannerModel: "Other", OutputFolder: "/scans"},
	}
	assert.Error(t, conn.Validate())

	conn.Config = &ScannerConfig{ScannerIP: "192.168.1.100", ScannerModel: "Other", OutputFolder: "/scans"}
	assert.NoError(t, conn.Validate())

	conn.Config = &CloudConfig{Provider: "Dropbox", AccessToken: "tok"}
	assert.Error(t, conn.Validate(), "config variant must match the connection type")
}

func TestDecodeConnectionConfig_UnknownType(t *testing.T) {
	_, err := DecodeConnectionConfig("fax", nil)
	assert.Error(t, err)
}

func TestProject_Matches(t *testing.T) {
	p := Project{
		Name:       "Corridor Expansion",
		Team:       []string{"Engineering"},
		AssignedTo: []string{"Priya Sharma"},
	}
	assert.True(t, p.Matches("corridor"))
	assert.True(t, p.Matches("engineering"))
	assert.True(t, p.Matches("sharma"))
	assert.False(t, p.Matches("ticketing"))
}
