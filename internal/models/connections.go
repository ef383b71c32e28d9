package models

import (
	"encoding/json"
	"fmt"
	"net"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ConnectionType string

const (
	ConnectionEmail      ConnectionType = "email"
	ConnectionSharePoint ConnectionType = "sharepoint"
	ConnectionMaximo     ConnectionType = "maximo"
	ConnectionWhatsApp   ConnectionType = "whatsapp"
	ConnectionCloud      ConnectionType = "cloud"
	ConnectionScanner    ConnectionType = "scanner"
)

type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusError        ConnectionStatus = "error"
	StatusPending      ConnectionStatus = "pending"
)

type SyncFrequency string

const (
	SyncRealtime SyncFrequency = "realtime"
	SyncHourly   SyncFrequency = "hourly"
	SyncDaily    SyncFrequency = "daily"
	SyncWeekly   SyncFrequency = "weekly"
	SyncManual   SyncFrequency = "manual"
)

var (
	urlPattern   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
)

// ConnectionConfig is the per-type configuration of a Connection. Each
// connection type has exactly one implementation.
type ConnectionConfig interface {
	ConnectionType() ConnectionType
	Validate() error
}

type EmailConfig struct {
	Server    string `json:"server"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Folder    string `json:"folder,omitempty"`
	FileTypes string `json:"fileTypes,omitempty"`
}

func (EmailConfig) ConnectionType() ConnectionType { return ConnectionEmail }

func (c EmailConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.FileTypes, validation.In("PDF", "DOC", "DOCX", "XLS", "XLSX", "All")),
	)
}

type SharePointConfig struct {
	SiteURL     string `json:"siteUrl"`
	LibraryName string `json:"libraryName"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Folder      string `json:"folder,omitempty"`
}

func (SharePointConfig) ConnectionType() ConnectionType { return ConnectionSharePoint }

func (c SharePointConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SiteURL, validation.Required, validation.Match(urlPattern)),
		validation.Field(&c.LibraryName, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

type MaximoConfig struct {
	ServerURL  string `json:"serverUrl"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Database   string `json:"database"`
	ExportPath string `json:"exportPath,omitempty"`
}

func (MaximoConfig) ConnectionType() ConnectionType { return ConnectionMaximo }

func (c MaximoConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServerURL, validation.Required, validation.Match(urlPattern)),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.Database, validation.Required),
	)
}

type WhatsAppConfig struct {
	PhoneNumber     string `json:"phoneNumber"`
	APIKey          string `json:"apiKey"`
	WebhookURL      string `json:"webhookUrl"`
	AllowedContacts string `json:"allowedContacts,omitempty"`
}

func (WhatsAppConfig) ConnectionType() ConnectionType { return ConnectionWhatsApp }

func (c WhatsAppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PhoneNumber, validation.Required, validation.Match(phonePattern)),
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.WebhookURL, validation.Required, validation.Match(urlPattern)),
	)
}

type CloudConfig struct {
	Provider     string `json:"provider"`
	AccessToken  string `json:"accessToken"`
	FolderPath   string `json:"folderPath,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (CloudConfig) ConnectionType() ConnectionType { return ConnectionCloud }

func (c CloudConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required,
			validation.In("Google Drive", "OneDrive", "Dropbox", "AWS S3", "Azure Blob")),
		validation.Field(&c.AccessToken, validation.Required),
	)
}

type ScannerConfig struct {
	ScannerIP    string `json:"scannerIp"`
	ScannerModel string `json:"scannerModel"`
	OutputFolder string `json:"outputFolder"`
	Resolution   string `json:"resolution,omitempty"`
	ColorMode    string `json:"colorMode,omitempty"`
}

func (ScannerConfig) ConnectionType() ConnectionType { return ConnectionScanner }

func (c ScannerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ScannerIP, validation.Required, validation.By(isIP)),
		validation.Field(&c.ScannerModel, validation.Required,
			validation.In("Canon imageRUNNER", "HP LaserJet MFP", "Xerox WorkCentre", "Ricoh MP", "Other")),
		validation.Field(&c.OutputFolder, validation.Required),
		validation.Field(&c.Resolution, validation.In("150", "300", "600", "1200")),
		validation.Field(&c.ColorMode, validation.In("Color", "Grayscale", "Black & White")),
	)
}

func isIP(value interface{}) error {
	s, _ := value.(string)
	if s == "" || net.ParseIP(s) != nil {
		return nil
	}
	return fmt.Errorf("must be a valid IP address")
}

// DecodeConnectionConfig decodes raw into the config variant for t.
// A nil or empty raw value yields the zero config of that variant.
func DecodeConnectionConfig(t ConnectionType, raw json.RawMessage) (ConnectionConfig, error) {
	var cfg ConnectionConfig
	switch t {
	case ConnectionEmail:
		cfg = &EmailConfig{}
	case ConnectionSharePoint:
		cfg = &SharePointConfig{}
	case ConnectionMaximo:
		cfg = &MaximoConfig{}
	case ConnectionWhatsApp:
		cfg = &WhatsAppConfig{}
	case ConnectionCloud:
		cfg = &CloudConfig{}
	case ConnectionScanner:
		cfg = &ScannerConfig{}
	default:
		return nil, fmt.Errorf("unknown connection type %q", t)
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", t, err)
		}
	}
	return cfg, nil
}

type Connection struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           ConnectionType   `json:"type"`
	Status         ConnectionStatus `json:"status"`
	LastSync       *string          `json:"lastSync"`
	Config         ConnectionConfig `json:"config"`
	SyncFrequency  SyncFrequency    `json:"syncFrequency"`
	DocumentsCount int              `json:"documentsCount"`
	CreatedDate    string           `json:"createdDate"`
	Description    string           `json:"description,omitempty"`
}

func (c *Connection) UnmarshalJSON(data []byte) error {
	type alias Connection
	aux := struct {
		*alias
		Config json.RawMessage `json:"config"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	cfg, err := DecodeConnectionConfig(c.Type, aux.Config)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

func (c *Connection) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Type, validation.Required, validation.In(
			ConnectionEmail, ConnectionSharePoint, ConnectionMaximo,
			ConnectionWhatsApp, ConnectionCloud, ConnectionScanner)),
		validation.Field(&c.Status, validation.In(
			StatusConnected, StatusDisconnected, StatusError, StatusPending)),
		validation.Field(&c.SyncFrequency, validation.In(
			SyncRealtime, SyncHourly, SyncDaily, SyncWeekly, SyncManual)),
	); err != nil {
		return err
	}

	if c.Config == nil {
		return fmt.Errorf("config: cannot be blank")
	}
	if c.Config.ConnectionType() != c.Type {
		return fmt.Errorf("config: %s config given for %s connection", c.Config.ConnectionType(), c.Type)
	}
	if err := c.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ConnectionPatch is a partial update. The type of a connection is fixed at
// creation, so Config is decoded against the existing type.
type ConnectionPatch struct {
	Name          *string           `json:"name,omitempty"`
	Status        *ConnectionStatus `json:"status,omitempty"`
	Config        json.RawMessage   `json:"config,omitempty"`
	SyncFrequency *SyncFrequency    `json:"syncFrequency,omitempty"`
	Description   *string           `json:"description,omitempty"`
}

type ConnectionStats struct {
	Total          int `json:"total"`
	Connected      int `json:"connected"`
	Disconnected   int `json:"disconnected"`
	TotalDocuments int `json:"totalDocuments"`
}

type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ConnectionSyncResult struct {
	Success            bool   `json:"success"`
	DocumentsProcessed int    `json:"documentsProcessed"`
	Message            string `json:"message"`
}

type ConfigField struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	Description string   `json:"description,omitempty"`
}

type ConnectionTemplate struct {
	Type         ConnectionType `json:"type"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	ConfigFields []ConfigField  `json:"configFields"`
	Features     []string       `json:"features"`
}
