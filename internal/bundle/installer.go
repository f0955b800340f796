package bundle

import (
	"errors"
	"fmt"
	"strings"

	"svcman/internal/logger"
	"svcman/internal/services"
)

// Registrar is the part of the manager the installer writes through
type Registrar interface {
	RecordLister
	Register(tag, name, location string) (services.Record, error)
}

// InstallOptions configures Install
type InstallOptions struct {
	DryRun bool
}

// InstallResult reports what happened to each service line
type InstallResult struct {
	Registered []ServiceReference
	Skipped    []ServiceReference
	Failed     []InstallFailure
}

// InstallFailure pairs a line with the error that stopped it
type InstallFailure struct {
	Ref ServiceReference
	Err error
}

func (f InstallFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Ref.Pos, f.Ref.Record.Name, f.Err)
}

func (f InstallFailure) Unwrap() error { return f.Err }

// Installer registers the services a Servicefile lists
type Installer struct {
	target Registrar
	log    logger.Logger
}

// NewInstaller creates an Installer writing to target
func NewInstaller(target Registrar, log logger.Logger) *Installer {
	if log == nil {
		log = logger.Nop()
	}
	return &Installer{target: target, log: log}
}

// Install registers every service in sf whose name is not registered yet.
// A failing line does not stop the rest; the returned error joins them.
func (i *Installer) Install(sf *Servicefile, opts InstallOptions) (*InstallResult, error) {
	existing, err := i.target.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(existing))
	for _, rec := range existing {
		seen[normalize(rec.Name)] = true
	}

	result := &InstallResult{}
	var errs []error
	for _, ref := range sf.References() {
		key := normalize(ref.Record.Name)
		if seen[key] {
			i.log.Debug("service already registered", logger.String("name", ref.Record.Name))
			result.Skipped = append(result.Skipped, ref)
			continue
		}

		if opts.DryRun {
			result.Registered = append(result.Registered, ref)
			seen[key] = true
			continue
		}

		if _, err := i.target.Register(ref.Record.Tag(), ref.Record.Name, ref.Record.Location); err != nil {
			failure := InstallFailure{Ref: ref, Err: err}
			result.Failed = append(result.Failed, failure)
			errs = append(errs, failure)
			continue
		}
		seen[key] = true
		result.Registered = append(result.Registered, ref)
	}

	return result, errors.Join(errs...)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
