package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-taskmaster/organizations"
	"github.com/jrsteele09/go-taskmaster/policy"
	"github.com/jrsteele09/go-taskmaster/transport"
)

var orgCmd = &cobra.Command{
	Use:     "org",
	Aliases: []string{"organization"},
	Short:   "Manage organizations and their members",
}

var orgListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your organizations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		orgs, meta, err := a.orgs.List(cmd.Context(), transport.Page{})
		if err != nil {
			return err
		}
		for _, org := range orgs {
			marker := " "
			if org.ID == a.session.ActiveOrganizationID() {
				marker = "*"
			}
			fmt.Printf("%s %-36s  %s\n", marker, org.ID, org.Name)
		}
		fmt.Printf("%d organization(s)\n", meta.Total)
		return nil
	},
}

var orgCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an organization (you become its owner)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		org, err := a.orgs.Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created organization %s (%s)\n", org.Name, org.ID)
		return nil
	},
}

var orgUseCmd = &cobra.Command{
	Use:   "use ORG_ID",
	Short: "Select the active organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}
		if err := a.session.SetActiveOrganization(args[0]); err != nil {
			return err
		}
		fmt.Printf("Active organization set to %s\n", args[0])
		return nil
	},
}

var orgRenameCmd = &cobra.Command{
	Use:   "rename ORG_ID NAME",
	Short: "Rename an organization (owner or admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		role, _, err := a.viewerRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !policy.CanEditOrganization(role) {
			return fmt.Errorf("role %q cannot edit this organization", role)
		}

		org, err := a.orgs.Update(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Renamed organization to %s\n", org.Name)
		return nil
	},
}

var orgDeleteCmd = &cobra.Command{
	Use:     "rm ORG_ID",
	Aliases: []string{"delete"},
	Short:   "Delete an organization (owner only)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		role, _, err := a.viewerRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !policy.CanDeleteOrganization(role) {
			return fmt.Errorf("role %q cannot delete this organization", role)
		}

		if err := a.orgs.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Organization deleted.")
		return nil
	},
}

var orgMembersCmd = &cobra.Command{
	Use:   "members ORG_ID",
	Short: "List an organization's members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		members, meta, err := a.orgs.Members(cmd.Context(), args[0], transport.Page{})
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Printf("%-36s  %-8s  %s\n", m.UserID, m.Role, m.Email)
		}
		fmt.Printf("%d member(s)\n", meta.Total)
		return nil
	},
}

var orgInviteCmd = &cobra.Command{
	Use:   "invite ORG_ID",
	Short: "Invite a member (owner or admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		roleFlag, _ := cmd.Flags().GetString("role")
		if email == "" {
			return fmt.Errorf("--email is required")
		}

		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		role, _, err := a.viewerRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !policy.CanManageMembers(role) {
			return fmt.Errorf("role %q cannot manage members", role)
		}

		invite := organizations.Invitation{Email: email, Role: policy.Role(roleFlag)}
		if err := a.orgs.Invite(cmd.Context(), args[0], invite); err != nil {
			return err
		}
		fmt.Printf("Invited %s as %s\n", email, roleFlag)
		return nil
	},
}

var orgSetRoleCmd = &cobra.Command{
	Use:   "set-role ORG_ID USER_ID",
	Short: "Change a member's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleFlag, _ := cmd.Flags().GetString("role")
		newRole := policy.Role(roleFlag)
		if !newRole.Valid() {
			return fmt.Errorf("--role must be one of owner, admin, member")
		}

		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		viewerRole, members, err := a.viewerRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		targetRole, err := memberRole(members, args[1])
		if err != nil {
			return err
		}
		if !policy.CanChangeRole(viewerRole, targetRole) {
			return fmt.Errorf("role %q cannot change the role of a %q", viewerRole, targetRole)
		}

		member, err := a.orgs.UpdateMemberRole(cmd.Context(), args[0], args[1], newRole)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", member.Username, member.Role)
		return nil
	},
}

var orgRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member ORG_ID USER_ID",
	Short: "Remove a member from an organization",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		viewerRole, members, err := a.viewerRole(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		targetRole, err := memberRole(members, args[1])
		if err != nil {
			return err
		}
		if !policy.CanRemoveMember(viewerRole, targetRole) {
			return fmt.Errorf("role %q cannot remove a %q", viewerRole, targetRole)
		}

		if err := a.orgs.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Member removed.")
		return nil
	},
}

func init() {
	orgInviteCmd.Flags().String("email", "", "invitee email")
	orgInviteCmd.Flags().String("role", "member", "role to grant (admin or member)")
	orgSetRoleCmd.Flags().String("role", "", "new role (owner, admin or member)")

	orgCmd.AddCommand(orgListCmd, orgCreateCmd, orgUseCmd, orgRenameCmd, orgDeleteCmd,
		orgMembersCmd, orgInviteCmd, orgSetRoleCmd, orgRemoveMemberCmd)
	rootCmd.AddCommand(orgCmd)
}
