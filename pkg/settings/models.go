package settings

// RequiredFields flags which optional record fields manual creation must
// fill in.
type RequiredFields struct {
	Age       bool `json:"age"`
	Sex       bool `json:"sex"`
	BirthDate bool `json:"birth_date"`
}

// Permissions are advisory flags for the review layer; the engine stores
// them but never enforces them itself.
type Permissions struct {
	CommonCanViewHistory          bool `json:"common_can_view_history"`
	CommonCanImportAgenda         bool `json:"common_can_import_agenda"`
	CommonCanEditRecord           bool `json:"common_can_edit_record"`
	CommonCanDeleteRecord         bool `json:"common_can_delete_record"`
	CommonCanManageDestinations   bool `json:"common_can_manage_destinations"`
	CommonCanManageRequiredFields bool `json:"common_can_manage_required_fields"`
}

type SystemConfig struct {
	RequiredFields RequiredFields `json:"required_fields"`
	Permissions    Permissions    `json:"permissions"`
}

func DefaultConfig() SystemConfig {
	return SystemConfig{
		RequiredFields: RequiredFields{Age: true},
		Permissions: Permissions{
			CommonCanViewHistory:  true,
			CommonCanImportAgenda: true,
		},
	}
}

// DefaultDestinations seeds the configurable location label set.
func DefaultDestinations() []string {
	return []string{
		"Ambulatório", "Internação", "Faturamento", "Arquivo",
		"Recepção", "Autorização", "Estatística",
		"Auditoria", "Outros", "Arquivo Morto",
	}
}
