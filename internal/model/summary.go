package model

// Summary holds counts derived from a directory run.
type Summary struct {
	// Total is the number of records.
	Total int `json:"total"`

	// Clean is the number of records without a signature match.
	Clean int `json:"clean"`

	// Infected is the number of records with a signature match.
	Infected int `json:"infected"`

	// InfectedFiles lists the names of infected files in record order.
	InfectedFiles []string `json:"infected_files,omitempty"`
}

// Summarize counts the records. Record order is preserved in InfectedFiles.
func Summarize(records []FileScanRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.Infected {
			s.Infected++
			s.InfectedFiles = append(s.InfectedFiles, r.FileName)
			continue
		}
		s.Clean++
	}
	return s
}

// HasInfected reports whether at least one record was infected.
func (s Summary) HasInfected() bool {
	return s.Infected > 0
}
