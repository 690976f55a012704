package screens

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"expenseport/internal/core/domain"
	"expenseport/internal/dto"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
)

// PoliciesScreen lists and creates category spending limits.
type PoliciesScreen struct {
	inlineMessage
	gw    *gateway.Client
	guard *guard.Guard
	out   io.Writer

	policies []domain.Policy
}

// NewPoliciesScreen creates the policies screen.
func NewPoliciesScreen(gw *gateway.Client, g *guard.Guard, out io.Writer) *PoliciesScreen {
	return &PoliciesScreen{gw: gw, guard: g, out: out}
}

// Load verifies admin access and fetches the configured policies.
func (s *PoliciesScreen) Load(ctx context.Context) error {
	s.set("")
	if err := s.guard.RequireRole(domain.RoleAdmin); err != nil {
		s.set(errorText(err))
		return err
	}
	policies, err := s.gw.ListPolicies(ctx)
	if err != nil {
		s.set("Error loading policies: " + errorText(err))
		return err
	}
	s.policies = policies
	return nil
}

// Policies returns the loaded policies.
func (s *PoliciesScreen) Policies() []domain.Policy { return s.policies }

// Create validates the form and adds a policy, patching the local list on a
// confirmed response only.
func (s *PoliciesScreen) Create(ctx context.Context, req dto.CreatePolicyRequest) error {
	s.set("")
	if err := s.guard.RequireRole(domain.RoleAdmin); err != nil {
		s.set(errorText(err))
		return err
	}
	if err := req.Validate(); err != nil {
		s.set(errorText(err))
		return err
	}
	policy, err := s.gw.CreatePolicy(ctx, req)
	if err != nil {
		s.set("Error creating policy: " + errorText(err))
		return err
	}
	s.policies = append(s.policies, *policy)
	s.set(fmt.Sprintf("Policy added for %s.", policy.Category))
	return nil
}

// Render writes the policy table to the screen's output.
func (s *PoliciesScreen) Render() {
	if len(s.policies) == 0 {
		fmt.Fprintln(s.out, "No policies configured.")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tROLE\tLIMIT")
	for _, p := range s.policies {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Category, p.Role, p.Limit.StringFixed(2))
	}
	tw.Flush()
}
