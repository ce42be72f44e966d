package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	coredns "github.com/siteship/siteship/internal/core/dns"
	"github.com/siteship/siteship/internal/core/domain"
	"github.com/siteship/siteship/internal/shell/platform"
	"github.com/siteship/siteship/internal/shell/store"
)

// =============================================================================
// Domain Service
// =============================================================================

// DomainService orchestrates the custom-domain lifecycle: platform-side
// attachment, automatic DNS record creation where the zone is managed by
// this account, and reconciliation of the platform's per-domain status.
type DomainService struct {
	store          store.Store
	platform       platform.Client
	platformSuffix string
	logger         *slog.Logger
}

// NewDomainService creates a new custom-domain orchestrator.
func NewDomainService(s store.Store, p platform.Client, platformSuffix string, logger *slog.Logger) *DomainService {
	if logger == nil {
		logger = slog.Default()
	}

	return &DomainService{
		store:          s,
		platform:       p,
		platformSuffix: platformSuffix,
		logger:         logger.With("component", "domain_orchestrator"),
	}
}

// =============================================================================
// Configure
// =============================================================================

// ConfigureResult carries the outcome of configuring a custom domain.
// DNSConfigured false with a RequiredRecord is a deliberate partial success:
// the platform-side attachment succeeded but the customer must create the
// CNAME themselves.
type ConfigureResult struct {
	DNSConfigured  bool                     `json:"dns_configured"`
	RequiredRecord *coredns.RequiredRecord  `json:"required_record,omitempty"`
	Attachment     *platform.DomainRecord   `json:"attachment,omitempty"`
	IsApex         bool                     `json:"is_apex"`
	Record         *domain.DeploymentRecord `json:"record,omitempty"`
}

// Configure attaches a custom domain to the customer's hosting project and
// attempts to create the CNAME record automatically. The domain and the
// dns_pending status are persisted before any remote call, so the intent is
// durable even when later steps fail. Re-configuring an already-attached
// domain converges without error.
func (s *DomainService) Configure(ctx context.Context, customerID, hostname string) (*ConfigureResult, error) {
	hostname = coredns.Normalize(hostname)
	if err := coredns.ValidateHostname(hostname); err != nil {
		return nil, err
	}

	record, err := s.store.GetDeploymentRecord(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if record.PlatformProjectID == "" {
		return nil, fmt.Errorf("customer %s: %w", customerID, domain.ErrNotInitialized)
	}

	record.SetCustomDomain(hostname)
	if err := s.store.UpdateDeploymentRecord(ctx, record); err != nil {
		return nil, err
	}

	// Step A: platform-side attachment. Already-attached converges to
	// success; any other failure aborts before touching DNS.
	attachment, err := s.platform.AddCustomDomain(ctx, record.PlatformProjectName, hostname)
	if err != nil {
		if !platform.IsAlreadyExists(err) {
			record.SetDomainStatus(domain.DomainStatusError)
			if updateErr := s.store.UpdateDeploymentRecord(ctx, record); updateErr != nil {
				s.logger.Error("failed to persist domain error status",
					"customer", customerID, "domain", hostname, "error", updateErr)
			}
			return nil, err
		}
		attachment = s.findAttachment(ctx, record.PlatformProjectName, hostname)
	}

	target := domain.PlatformSubdomain(record.PlatformProjectName, s.platformSuffix)
	required := coredns.RequiredRecordFor(hostname, target)
	result := &ConfigureResult{
		Attachment: attachment,
		IsApex:     coredns.IsApex(hostname),
	}

	// Step B: DNS. The record name is always the full hostname; the apex
	// classification above is informational only.
	if s.ensureDNSRecord(ctx, hostname, target) {
		record.SetDomainStatus(domain.DomainStatusDNSConfigured)
		if err := s.store.UpdateDeploymentRecord(ctx, record); err != nil {
			return nil, err
		}
		result.DNSConfigured = true
	} else {
		// Partial success: attachment is in place, DNS needs manual setup.
		// The status stays dns_pending, never error.
		result.RequiredRecord = &required
		s.logger.Info("automatic DNS configuration unavailable, returning manual record",
			"customer", customerID, "domain", hostname, "target", target)
	}

	result.Record = record
	return result, nil
}

// findAttachment fetches the existing platform attachment after an
// already-exists response. Best effort; the attachment is informational.
func (s *DomainService) findAttachment(ctx context.Context, projectName, hostname string) *platform.DomainRecord {
	domains, err := s.platform.ListCustomDomains(ctx, projectName)
	if err != nil {
		s.logger.Warn("failed to list platform domains after already-exists",
			"project", projectName, "domain", hostname, "error", err)
		return nil
	}
	for i := range domains {
		if domains[i].Name == hostname {
			return &domains[i]
		}
	}
	return nil
}

// ensureDNSRecord reports whether a CNAME for the hostname exists or was
// created. False means the customer has to create the record manually,
// typically because the zone is not managed by this account.
func (s *DomainService) ensureDNSRecord(ctx context.Context, hostname, target string) bool {
	zone := coredns.ZoneName(hostname)

	existing, err := s.platform.ListDNSRecords(ctx, zone, hostname, "CNAME")
	if err == nil && len(existing) > 0 {
		return true
	}

	_, err = s.platform.CreateDNSRecord(ctx, zone, platform.DNSRecord{
		Type:    "CNAME",
		Name:    hostname,
		Content: target,
		Proxied: true,
	})
	return err == nil
}

// =============================================================================
// Reconcile
// =============================================================================

// DomainStatusResult is the caller-facing custom-domain view. DNSRecords and
// RequiredRecord are always populated when a domain is configured, even in
// the active state, so operators can re-verify the setup.
type DomainStatusResult struct {
	HasCustomDomain bool                    `json:"has_custom_domain"`
	CustomDomain    string                  `json:"custom_domain,omitempty"`
	DomainStatus    domain.DomainStatus     `json:"domain_status,omitempty"`
	DNSRecords      []platform.DNSRecord    `json:"dns_records"`
	RequiredRecord  *coredns.RequiredRecord `json:"required_record,omitempty"`
	PlatformDomain  *platform.DomainRecord  `json:"platform_domain,omitempty"`
	IsApex          bool                    `json:"is_apex,omitempty"`
}

// Reconcile queries the platform's per-domain status and DNS records and
// updates the local domain status. A domain the platform has no record of
// leaves the status unchanged - it may still be provisioning or may have
// silently failed, and neither warrants a local flip.
func (s *DomainService) Reconcile(ctx context.Context, customerID string) (*DomainStatusResult, error) {
	record, err := s.store.GetDeploymentRecord(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if record.CustomDomain == "" {
		return &DomainStatusResult{HasCustomDomain: false, DomainStatus: domain.DomainStatusNone}, nil
	}

	domains, err := s.platform.ListCustomDomains(ctx, record.PlatformProjectName)
	if err != nil {
		return nil, err
	}

	var platformDomain *platform.DomainRecord
	for i := range domains {
		if domains[i].Name == record.CustomDomain {
			platformDomain = &domains[i]
			break
		}
	}

	if platformDomain != nil {
		next, changed := coredns.MapPlatformDomainStatus(record.DomainStatus, platformDomain.Status)
		if changed {
			record.SetDomainStatus(next)
			if err := s.store.UpdateDeploymentRecord(ctx, record); err != nil {
				return nil, err
			}
			s.logger.Info("domain status reconciled",
				"customer", customerID, "domain", record.CustomDomain, "status", next)
		}
	}

	target := domain.PlatformSubdomain(record.PlatformProjectName, s.platformSuffix)
	required := coredns.RequiredRecordFor(record.CustomDomain, target)

	return &DomainStatusResult{
		HasCustomDomain: true,
		CustomDomain:    record.CustomDomain,
		DomainStatus:    record.DomainStatus,
		DNSRecords:      s.listDNSRecords(ctx, record.CustomDomain),
		RequiredRecord:  &required,
		PlatformDomain:  platformDomain,
		IsApex:          coredns.IsApex(record.CustomDomain),
	}, nil
}

// listDNSRecords fetches the DNS records for display. An unmanaged zone is
// normal for manual setups and yields an empty list, not an error.
func (s *DomainService) listDNSRecords(ctx context.Context, hostname string) []platform.DNSRecord {
	records, err := s.platform.ListDNSRecords(ctx, coredns.ZoneName(hostname), hostname, "")
	if err != nil {
		if !errors.Is(err, platform.ErrZoneNotFound) {
			s.logger.Warn("failed to list DNS records", "domain", hostname, "error", err)
		}
		return []platform.DNSRecord{}
	}
	return records
}
