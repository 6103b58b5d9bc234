package profile

import (
	"fmt"

	"conform/internal/schema"
)

// Reconcile merges the inferred schema with an optional expected schema and
// returns the final schema plus the reconciliation anomalies.
//
// Without an expected schema the inferred schema passes through unchanged.
// With one, per expected column:
//
//   - equal types: keep the expected type, carry inferred nullable and
//     confidence.
//   - inferred strictly narrower (integer ⊂ real ⊂ text, unknown ⊂ all):
//     widen to the expected type silently; narrowing is normal evolution.
//   - inferred strictly wider or incomparable: keep the expected type and
//     record a SchemaDrift warning.
//   - never observed: keep the expected definition, mark it nullable, record
//     MissingColumn.
//
// Observed columns absent from the expected schema append to the tail in
// first-seen order with a NewColumn anomaly. Output order is therefore
// deterministic: expected columns first (original order), then new columns.
func Reconcile(inferred schema.Schema, expected *schema.Schema) (schema.Schema, []Anomaly) {
	if expected == nil {
		return inferred, nil
	}

	var out schema.Schema
	var anomalies []Anomaly

	for _, exp := range expected.Columns {
		inf, observed := inferred.Find(exp.Name)
		if !observed {
			def := exp
			def.Nullable = true
			def.Confidence = 0
			out.Columns = append(out.Columns, def)
			anomalies = append(anomalies, Anomaly{
				Column: exp.Name,
				Kind:   AnomalyMissingColumn,
				Detail: fmt.Sprintf("expected column %q (%s) had no observations", exp.Name, exp.Type),
			})
			continue
		}

		def := schema.ColumnDef{
			Name:       exp.Name,
			Type:       exp.Type,
			Nullable:   inf.Nullable,
			Confidence: inf.Confidence,
		}
		if inf.Type != exp.Type && !schema.Narrower(inf.Type, exp.Type) {
			anomalies = append(anomalies, Anomaly{
				Column: exp.Name,
				Kind:   AnomalySchemaDrift,
				Detail: fmt.Sprintf("expected %s, inferred %s; expected type kept", exp.Type, inf.Type),
			})
		}
		out.Columns = append(out.Columns, def)
	}

	for _, inf := range inferred.Columns {
		if _, known := expected.Find(inf.Name); known {
			continue
		}
		out.Columns = append(out.Columns, inf)
		anomalies = append(anomalies, Anomaly{
			Column: inf.Name,
			Kind:   AnomalyNewColumn,
			Detail: fmt.Sprintf("observed column %q (%s) is not in the expected schema", inf.Name, inf.Type),
		})
	}

	return out, anomalies
}
