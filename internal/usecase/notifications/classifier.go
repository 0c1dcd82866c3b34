package notifications

import (
	"sort"

	"alertBot/internal/domain"
)

// Classifier elige la alerta de bits según la tabla de umbrales.
type Classifier struct {
	table domain.TierTable
}

func NewClassifier(buckets []domain.TierBucket) *Classifier {
	table := make(domain.TierTable, 0, len(buckets))
	for _, b := range buckets {
		if b.Threshold <= 0 {
			continue
		}
		table = append(table, b)
	}
	sort.SliceStable(table, func(i, j int) bool { return table[i].Threshold > table[j].Threshold })
	return &Classifier{table: table}
}

// Classify devuelve el bucket con el umbral más alto <= amount. Montos por
// debajo del menor umbral usan ese bucket; amount <= 0 no genera alerta.
func (c *Classifier) Classify(amount int64) (domain.NotificationSpec, bool) {
	if c == nil || len(c.table) == 0 || amount <= 0 {
		return domain.NotificationSpec{}, false
	}
	for _, bucket := range c.table {
		if amount >= bucket.Threshold {
			return bucket.Spec, true
		}
	}
	return c.table[len(c.table)-1].Spec, true
}

func (c *Classifier) Table() domain.TierTable {
	if c == nil {
		return nil
	}
	return append(domain.TierTable(nil), c.table...)
}

// DefaultAlertConfig es la configuración que se escribe cuando no existe
// el archivo de notificaciones.
func DefaultAlertConfig() domain.AlertConfig {
	return domain.AlertConfig{
		Subs: &domain.NotificationSpec{Icon: "train-conductor112.gif", Lifetime: 5},
		Bits: domain.TierTable{
			{Threshold: 100000, Spec: domain.NotificationSpec{Icon: "bits-100000.gif", Lifetime: 30}},
			{Threshold: 10000, Spec: domain.NotificationSpec{Icon: "bits-10000.gif", Lifetime: 15}},
			{Threshold: 5000, Spec: domain.NotificationSpec{Icon: "bits-5000.gif", Lifetime: 10}},
			{Threshold: 1000, Spec: domain.NotificationSpec{Icon: "bits-1000.gif", Lifetime: 7}},
			{Threshold: 100, Spec: domain.NotificationSpec{Icon: "bits-100.gif", Lifetime: 5}},
			{Threshold: 1, Spec: domain.NotificationSpec{Icon: "bits-1.gif", Lifetime: 3}},
		},
	}
}
