package backend

import (
	"fmt"

	"orcamento/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	authType := AuthType(appConfig.AuthBackend)
	if !authType.IsValid() {
		return Config{}, fmt.Errorf("invalid auth type in config: %s", appConfig.AuthBackend)
	}

	return Config{
		Type:     backendType,
		AuthType: authType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		FirebaseProjectID: appConfig.FirebaseProjectID,
		FirebaseAPIKey:    appConfig.FirebaseAPIKey,
		CredentialsFile:   appConfig.GoogleCredentialsFile,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,

		SessionTTL: appConfig.SessionTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.AuthType.IsValid() {
		return fmt.Errorf("invalid auth type: %s", c.AuthType)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional; without it the worker's pending pass does the sync
	case FirestoreBackend:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("Firebase project ID is required for firestore backend")
		}
	}

	if c.AuthType == FirebaseAuth && (c.FirebaseProjectID == "" || c.FirebaseAPIKey == "") {
		return fmt.Errorf("Firebase project ID and API key are required for firebase auth")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, FirestoreBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
