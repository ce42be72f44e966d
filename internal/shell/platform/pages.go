package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"
)

// =============================================================================
// Pages Client
// =============================================================================

// PagesClient implements Client on top of the official Cloudflare SDK.
// All calls are synchronous network requests bounded by the configured
// timeout; a timeout surfaces as a platform error and is never retried here.
type PagesClient struct {
	api       *cloudflare.API
	account   *cloudflare.ResourceContainer
	accountID string
}

// Config holds configuration for the Pages client.
type Config struct {
	BaseURL   string // override for tests; empty means the SDK default
	AccountID string
	APIToken  string
	Timeout   time.Duration
}

// DefaultConfig returns default Pages client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.cloudflare.com/client/v4",
		Timeout: 30 * time.Second,
	}
}

// NewPagesClient creates a new Pages platform client.
func NewPagesClient(cfg Config) (*PagesClient, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []cloudflare.Option{
		cloudflare.HTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, cloudflare.BaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	api, err := cloudflare.NewWithAPIToken(cfg.APIToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}

	return &PagesClient{
		api:       api,
		account:   cloudflare.AccountIdentifier(cfg.AccountID),
		accountID: cfg.AccountID,
	}, nil
}

// =============================================================================
// Project Operations
// =============================================================================

// CreateProject creates a hosting project.
func (c *PagesClient) CreateProject(ctx context.Context, name, repoURL, branch string) (*Project, error) {
	params := cloudflare.CreatePagesProjectParams{
		Name:             name,
		ProductionBranch: branch,
	}
	if repoURL != "" {
		owner, repo, err := splitRepoURL(repoURL)
		if err != nil {
			return nil, &Error{Op: "CreateProject", Message: err.Error(), Err: err}
		}
		params.Source = &cloudflare.PagesProjectSource{
			Type: "github",
			Config: &cloudflare.PagesProjectSourceConfig{
				Owner:            owner,
				RepoName:         repo,
				ProductionBranch: branch,
			},
		}
	}

	project, err := c.api.CreatePagesProject(ctx, c.account, params)
	if err != nil {
		return nil, c.apiError("CreateProject", err)
	}

	return &Project{
		ID:        project.ID,
		Name:      project.Name,
		Subdomain: project.SubDomain,
	}, nil
}

// DeleteProject removes a hosting project.
func (c *PagesClient) DeleteProject(ctx context.Context, name string) error {
	if err := c.api.DeletePagesProject(ctx, c.account, name); err != nil {
		return c.apiError("DeleteProject", err)
	}
	return nil
}

// =============================================================================
// Deployment Operations
// =============================================================================

// TriggerDeploy starts a new deployment of the given branch.
func (c *PagesClient) TriggerDeploy(ctx context.Context, name, branch string) (*Deployment, error) {
	deployment, err := c.api.CreatePagesDeployment(ctx, c.account, cloudflare.CreatePagesDeploymentParams{
		ProjectName: name,
		Branch:      branch,
	})
	if err != nil {
		return nil, c.apiError("TriggerDeploy", err)
	}

	return toDeployment(deployment), nil
}

// GetDeployStatus fetches the current state of a deployment.
func (c *PagesClient) GetDeployStatus(ctx context.Context, name, deployID string) (*Deployment, error) {
	deployment, err := c.api.GetPagesDeploymentInfo(ctx, c.account, name, deployID)
	if err != nil {
		return nil, c.apiError("GetDeployStatus", err)
	}

	return toDeployment(deployment), nil
}

func toDeployment(d cloudflare.PagesProjectDeployment) *Deployment {
	deployment := &Deployment{
		ID:          d.ID,
		URL:         d.URL,
		StageStatus: d.LatestStage.Status,
		StageName:   d.LatestStage.Name,
		Environment: d.Environment,
	}
	if d.CreatedOn != nil {
		deployment.CreatedAt = *d.CreatedOn
	}
	return deployment
}

// =============================================================================
// Domain Operations
// =============================================================================

// AddCustomDomain attaches a hostname to a project. An attachment that
// already exists converges to ErrDomainAlreadyExists; detection is scoped
// to this operation, so other conflicts (such as a project name collision
// during CreateProject) stay opaque platform errors.
func (c *PagesClient) AddCustomDomain(ctx context.Context, projectName, domain string) (*DomainRecord, error) {
	attached, err := c.api.PagesAddDomain(ctx, cloudflare.PagesDomainParameters{
		AccountID:   c.accountID,
		ProjectName: projectName,
		DomainName:  domain,
	})
	if err != nil {
		pErr := c.apiError("AddCustomDomain", err)
		if isAlreadyAttached(err) {
			pErr.Err = ErrDomainAlreadyExists
		}
		return nil, pErr
	}

	record := toDomainRecord(attached)
	return &record, nil
}

// ListCustomDomains lists hostnames attached to a project.
func (c *PagesClient) ListCustomDomains(ctx context.Context, projectName string) ([]DomainRecord, error) {
	domains, err := c.api.GetPagesDomains(ctx, cloudflare.PagesDomainsParameters{
		AccountID:   c.accountID,
		ProjectName: projectName,
	})
	if err != nil {
		return nil, c.apiError("ListCustomDomains", err)
	}

	records := make([]DomainRecord, 0, len(domains))
	for _, d := range domains {
		records = append(records, toDomainRecord(d))
	}
	return records, nil
}

func toDomainRecord(d cloudflare.PagesDomain) DomainRecord {
	record := DomainRecord{
		ID:     d.ID,
		Name:   d.Name,
		Status: string(d.Status),
	}
	if d.CreatedOn != nil {
		record.CreatedAt = *d.CreatedOn
	}
	return record
}

// =============================================================================
// DNS Operations
// =============================================================================

// ListDNSRecords lists records matching name (and type, if given) in the zone.
func (c *PagesClient) ListDNSRecords(ctx context.Context, zone, name, recordType string) ([]DNSRecord, error) {
	zoneRC, err := c.zoneContainer("ListDNSRecords", zone)
	if err != nil {
		return nil, err
	}

	records, _, err := c.api.ListDNSRecords(ctx, zoneRC, cloudflare.ListDNSRecordsParams{
		Name: name,
		Type: recordType,
	})
	if err != nil {
		return nil, c.apiError("ListDNSRecords", err)
	}

	out := make([]DNSRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toDNSRecord(r))
	}
	return out, nil
}

// CreateDNSRecord creates a record in the zone.
func (c *PagesClient) CreateDNSRecord(ctx context.Context, zone string, record DNSRecord) (*DNSRecord, error) {
	zoneRC, err := c.zoneContainer("CreateDNSRecord", zone)
	if err != nil {
		return nil, err
	}

	ttl := record.TTL
	if ttl == 0 {
		ttl = 1 // 1 means automatic TTL on the platform
	}

	created, err := c.api.CreateDNSRecord(ctx, zoneRC, cloudflare.CreateDNSRecordParams{
		Type:    record.Type,
		Name:    record.Name,
		Content: record.Content,
		Proxied: cloudflare.BoolPtr(record.Proxied),
		TTL:     ttl,
	})
	if err != nil {
		return nil, c.apiError("CreateDNSRecord", err)
	}

	result := toDNSRecord(created)
	return &result, nil
}

func toDNSRecord(r cloudflare.DNSRecord) DNSRecord {
	record := DNSRecord{
		ID:      r.ID,
		Type:    r.Type,
		Name:    r.Name,
		Content: r.Content,
		TTL:     r.TTL,
	}
	if r.Proxied != nil {
		record.Proxied = *r.Proxied
	}
	return record
}

// zoneContainer resolves a zone name to the platform's zone identifier.
func (c *PagesClient) zoneContainer(op, zone string) (*cloudflare.ResourceContainer, error) {
	zoneID, err := c.api.ZoneIDByName(zone)
	if err != nil {
		if strings.Contains(err.Error(), "zone could not be found") {
			return nil, &Error{
				Op:      op,
				Message: fmt.Sprintf("zone %s is not managed by this account", zone),
				Err:     ErrZoneNotFound,
			}
		}
		return nil, c.apiError(op, err)
	}
	return cloudflare.ZoneIdentifier(zoneID), nil
}

// =============================================================================
// Error Conversion
// =============================================================================

// apiError converts an SDK failure into a *Error carrying the platform's
// own message. Only the message and error code cross this boundary.
func (c *PagesClient) apiError(op string, err error) *Error {
	pErr := &Error{Op: op, Message: err.Error(), Err: err}

	var detail interface {
		ErrorCodes() []int
		ErrorMessages() []string
	}
	if errors.As(err, &detail) {
		if codes := detail.ErrorCodes(); len(codes) > 0 {
			pErr.Code = codes[0]
		}
		if messages := detail.ErrorMessages(); len(messages) > 0 {
			pErr.Message = messages[0]
		}
	} else {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			pErr.Message = "hosting platform is unreachable"
		}
	}

	switch err.(type) {
	case *cloudflare.NotFoundError:
		pErr.StatusCode = http.StatusNotFound
	case *cloudflare.RatelimitError:
		pErr.StatusCode = http.StatusTooManyRequests
	case *cloudflare.AuthenticationError:
		pErr.StatusCode = http.StatusUnauthorized
	case *cloudflare.AuthorizationError:
		pErr.StatusCode = http.StatusForbidden
	case *cloudflare.ServiceError:
		pErr.StatusCode = http.StatusServiceUnavailable
	}

	return pErr
}

// isAlreadyAttached reports whether an AddCustomDomain failure means the
// hostname is already attached.
func isAlreadyAttached(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "already associated") ||
		strings.Contains(msg, "already added")
}

// splitRepoURL extracts the owner and repository name from a git hosting
// URL such as https://github.com/acme/site.
func splitRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository URL %q must include an owner and repository name", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
