package reporting

import (
	"strings"

	"github.com/lauolme/registro-app/internal/ir"
)

// Fallback texts used when a section has no source lines.
const (
	NoCuestiones = "Ninguna"
	NoAnalisis   = "No se activaron reglas."
	NoConclusion = "No se aprecia efecto jurídico relevante."
	NoRiesgos    = "Ninguno identificado."
	NoPasos      = "Ninguno."
)

// Sections computes the six report slots from the facts and the triggered rules.
func Sections(facts ir.FactSet, triggered []ir.Rule) ir.Sections {
	var hechos, names, analisis, conclusion, riesgos, pasos []string
	for _, f := range facts {
		hechos = append(hechos, "- "+f.Key+": "+f.Value)
	}
	for _, r := range triggered {
		names = append(names, r.Name)
		analisis = append(analisis, "- "+r.Name+": "+r.Analysis)
		conclusion = append(conclusion, r.Conclusion)
		if r.Risk != "" {
			riesgos = append(riesgos, r.Risk)
		}
		if r.NextSteps != "" {
			pasos = append(pasos, r.NextSteps)
		}
	}
	return ir.Sections{
		Hechos:     strings.Join(hechos, "\n"),
		Cuestiones: orElse(strings.Join(names, ", "), NoCuestiones),
		Analisis:   orElse(strings.Join(analisis, "\n"), NoAnalisis),
		Conclusion: orElse(strings.Join(conclusion, "\n"), NoConclusion),
		Riesgos:    orElse(strings.Join(riesgos, "\n"), NoRiesgos),
		Pasos:      orElse(strings.Join(pasos, "\n"), NoPasos),
	}
}

// Render substitutes the computed sections into tpl. A template that does not
// use exactly the six slots yields a *TemplateError and no text.
func Render(tpl string, facts ir.FactSet, triggered []ir.Rule) (string, error) {
	return Fill(tpl, Sections(facts, triggered))
}

// Fill substitutes already computed sections into tpl.
func Fill(tpl string, s ir.Sections) (string, error) {
	segs, err := parseTemplate(tpl)
	if err != nil {
		return "", err
	}
	return assemble(segs, s), nil
}

func assemble(segs []segment, s ir.Sections) string {
	slots := map[string]string{
		"hechos":     s.Hechos,
		"cuestiones": s.Cuestiones,
		"analisis":   s.Analisis,
		"conclusion": s.Conclusion,
		"riesgos":    s.Riesgos,
		"pasos":      s.Pasos,
	}
	var sb strings.Builder
	for _, seg := range segs {
		if seg.slot == "" {
			sb.WriteString(seg.text)
			continue
		}
		sb.WriteString(slots[seg.slot])
	}
	return sb.String()
}

// orElse is the "x or fallback" of an empty join.
func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
