package services

import "github.com/BerylCAtieno/knowledge-lens-api/internal/models"

var connectionTemplates = []models.ConnectionTemplate{
	{
		Type:        models.ConnectionEmail,
		Name:        "Email Integration",
		Description: "Connect to email accounts to automatically ingest documents from attachments",
		ConfigFields: []models.ConfigField{
			{Name: "server", Label: "Email Server", Type: "text", Required: true, Placeholder: "imap.gmail.com"},
			{Name: "port", Label: "Port", Type: "number", Required: true, Placeholder: "993"},
			{Name: "username", Label: "Username/Email", Type: "email", Required: true},
			{Name: "password", Label: "Password/App Password", Type: "password", Required: true},
			{Name: "folder", Label: "Folder to Monitor", Type: "text", Placeholder: "INBOX"},
			{Name: "fileTypes", Label: "File Types", Type: "select", Options: []string{"PDF", "DOC", "DOCX", "XLS", "XLSX", "All"}},
		},
		Features: []string{
			"Automatic attachment processing",
			"Real-time email monitoring",
			"Sender-based categorization",
			"Subject line analysis",
		},
	},
	{
		Type:        models.ConnectionSharePoint,
		Name:        "SharePoint Repository",
		Description: "Connect to SharePoint document libraries for centralized document access",
		ConfigFields: []models.ConfigField{
			{Name: "siteUrl", Label: "SharePoint Site URL", Type: "url", Required: true, Placeholder: "https://company.sharepoint.com/sites/sitename"},
			{Name: "libraryName", Label: "Document Library Name", Type: "text", Required: true, Placeholder: "Documents"},
			{Name: "username", Label: "Username", Type: "text", Required: true},
			{Name: "password", Label: "Password", Type: "password", Required: true},
			{Name: "folder", Label: "Specific Folder Path", Type: "text", Placeholder: "/Engineering/Reports"},
		},
		Features: []string{
			"Bulk document synchronization",
			"Metadata preservation",
			"Version control tracking",
			"Permission-based access",
		},
	},
	{
		Type:        models.ConnectionMaximo,
		Name:        "Maximo Exports",
		Description: "Connect to IBM Maximo for maintenance and asset management documents",
		ConfigFields: []models.ConfigField{
			{Name: "serverUrl", Label: "Maximo Server URL", Type: "url", Required: true, Placeholder: "https://maximo.company.com"},
			{Name: "username", Label: "Username", Type: "text", Required: true},
			{Name: "password", Label: "Password", Type: "password", Required: true},
			{Name: "database", Label: "Database Name", Type: "text", Required: true, Placeholder: "MAXDB"},
			{Name: "exportPath", Label: "Export Directory", Type: "text", Placeholder: "/exports/documents"},
		},
		Features: []string{
			"Work order documentation",
			"Asset maintenance records",
			"Preventive maintenance schedules",
			"Compliance reports",
		},
	},
	{
		Type:        models.ConnectionWhatsApp,
		Name:        "WhatsApp Business",
		Description: "Process documents shared via WhatsApp Business API",
		ConfigFields: []models.ConfigField{
			{Name: "phoneNumber", Label: "Business Phone Number", Type: "text", Required: true, Placeholder: "+91XXXXXXXXXX"},
			{Name: "apiKey", Label: "WhatsApp Business API Key", Type: "password", Required: true},
			{Name: "webhookUrl", Label: "Webhook URL", Type: "url", Required: true},
			{Name: "allowedContacts", Label: "Allowed Contact Numbers", Type: "text", Description: "Comma-separated list of allowed numbers"},
		},
		Features: []string{
			"PDF document processing",
			"Image OCR conversion",
			"Contact-based filtering",
			"Real-time notifications",
		},
	},
	{
		Type:        models.ConnectionCloud,
		Name:        "Cloud Storage",
		Description: "Connect to cloud storage services like Google Drive, OneDrive, Dropbox",
		ConfigFields: []models.ConfigField{
			{Name: "provider", Label: "Cloud Provider", Type: "select", Required: true, Options: []string{"Google Drive", "OneDrive", "Dropbox", "AWS S3", "Azure Blob"}},
			{Name: "accessToken", Label: "Access Token/API Key", Type: "password", Required: true},
			{Name: "folderPath", Label: "Folder Path", Type: "text", Placeholder: "/Documents"},
			{Name: "refreshToken", Label: "Refresh Token", Type: "password"},
		},
		Features: []string{
			"Multi-provider support",
			"Folder synchronization",
			"Automatic file detection",
			"OAuth authentication",
		},
	},
	{
		Type:        models.ConnectionScanner,
		Name:        "Document Scanner",
		Description: "Connect to network scanners for hard-copy document digitization",
		ConfigFields: []models.ConfigField{
			{Name: "scannerIp", Label: "Scanner IP Address", Type: "text", Required: true, Placeholder: "192.168.1.100"},
			{Name: "scannerModel", Label: "Scanner Model", Type: "select", Required: true, Options: []string{"Canon imageRUNNER", "HP LaserJet MFP", "Xerox WorkCentre", "Ricoh MP", "Other"}},
			{Name: "outputFolder", Label: "Output Folder", Type: "text", Required: true, Placeholder: `\\scanner\scanned_docs`},
			{Name: "resolution", Label: "Scan Resolution (DPI)", Type: "select", Options: []string{"150", "300", "600", "1200"}},
			{Name: "colorMode", Label: "Color Mode", Type: "select", Options: []string{"Color", "Grayscale", "Black & White"}},
		},
		Features: []string{
			"High-resolution scanning",
			"OCR text extraction",
			"Batch processing",
			"Quality optimization",
		},
	},
}
