package runtime

import (
	"alertBot/internal/infrastructure/rulefile"
	"alertBot/internal/usecase/rules"
)

// LoadRegistry lee los archivos de reglas y los registra. Los errores por
// archivo no abortan la carga; el llamador decide si loguearlos o fallar.
func LoadRegistry(loader *rulefile.Loader, filter string) (*rules.Registry, []error) {
	registry := rules.NewRegistry()
	list, errs := loader.LoadRules(filter)
	for _, rule := range list {
		if err := registry.Register(rule); err != nil {
			errs = append(errs, err)
		}
	}
	return registry, errs
}
