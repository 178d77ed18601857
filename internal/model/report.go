package model

// Statistics mirrors GET /api/reportes/estadisticas.
type Statistics struct {
	TotalCitas  int `json:"totalCitas"`
	Completadas int `json:"completadas"`
	Pendientes  int `json:"pendientes"`
	Canceladas  int `json:"canceladas"`
}

// MonthlyCounts holds one count per calendar month, January first.
type MonthlyCounts [12]int

type DoctorCount struct {
	Medico   string `json:"medico"`
	Cantidad int    `json:"cantidad"`
}

type StatusBreakdown struct {
	Pendientes  int `json:"pendientes"`
	Completadas int `json:"completadas"`
	Canceladas  int `json:"canceladas"`
}

type Report struct {
	Statistics Statistics      `json:"estadisticas"`
	PerMonth   MonthlyCounts   `json:"citasMes"`
	PerDoctor  []DoctorCount   `json:"citasMedico"`
	ByStatus   StatusBreakdown `json:"estado"`
}
