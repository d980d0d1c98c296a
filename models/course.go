package models

// Course is stored as posted; the catalog enforces no field contract on it.
type Course map[string]interface{}
