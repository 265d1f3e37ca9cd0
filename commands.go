package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"snappy/client/internal/auth"
	"snappy/client/internal/contacts"
	"snappy/client/internal/models"
	"snappy/client/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and remember the session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "List friends",
	Args:  cobra.NoArgs,
	RunE:  runFriends,
}

var friendsAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Send a friend request",
	Args:  cobra.ExactArgs(1),
	RunE:  runFriendsAdd,
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List pending friend requests",
	Args:  cobra.NoArgs,
	RunE:  runRequests,
}

var requestsAcceptCmd = &cobra.Command{
	Use:   "accept <sender id>",
	Short: "Accept a friend request",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return answerRequest(args[0], true) },
}

var requestsDeclineCmd = &cobra.Command{
	Use:   "decline <sender id>",
	Short: "Decline a friend request",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return answerRequest(args[0], false) },
}

var flagPassword string

func init() {
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "password, prompted for when empty")
	registerCmd.Flags().StringVar(&flagPassword, "password", "", "password, prompted for when empty")

	friendsCmd.AddCommand(friendsAddCmd)
	requestsCmd.AddCommand(requestsAcceptCmd, requestsDeclineCmd)
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, friendsCmd, requestsCmd)
}

// readPassword prompts without echo on a terminal and reads a line otherwise
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	password := flagPassword
	if password == "" {
		if password, err = readPassword("Password: "); err != nil {
			return err
		}
	}
	ctx, stop := signalContext()
	defer stop()

	dest, err := e.auth.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	cur, _ := e.store.Current()
	fmt.Printf("Signed in as %s (%s)\n", cur.User.DisplayName(), cur.User.Role)
	if dest == auth.DestAvatar {
		fmt.Println("Pick an avatar in the terminal UI before chatting.")
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	form := auth.RegisterForm{Username: args[0], Email: args[1], Password: flagPassword, ConfirmPassword: flagPassword}
	if form.Password == "" {
		if form.Password, err = readPassword("Password: "); err != nil {
			return err
		}
		if form.ConfirmPassword, err = readPassword("Confirm password: "); err != nil {
			return err
		}
	}
	ctx, stop := signalContext()
	defer stop()

	if _, err := e.auth.Register(ctx, form); err != nil {
		return err
	}
	fmt.Printf("Account %s created and signed in\n", form.Username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()
	if err := e.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

// directory opens the contact directory of the signed-in user
func directory(e *env) (*contacts.Directory, error) {
	cur, ok := e.store.Current()
	if !ok {
		return nil, session.ErrNoSession
	}
	return contacts.New(e.client, cur.User, e.log), nil
}

func runFriends(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	dir, err := directory(e)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if err := dir.ListFriends(ctx); err != nil {
		return err
	}
	printUsers(dir.Friends())
	return nil
}

func runFriendsAdd(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	dir, err := directory(e)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if err := dir.SendRequest(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Friend request sent to %s\n", args[0])
	return nil
}

func runRequests(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	dir, err := directory(e)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if err := dir.ListPending(ctx); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SENDER ID\tUSERNAME\tEMAIL")
	for _, r := range dir.Pending() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.SenderID, r.Username, r.Email)
	}
	return w.Flush()
}

func answerRequest(senderID string, accept bool) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	dir, err := directory(e)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if accept {
		err = dir.Accept(ctx, senderID)
	} else {
		err = dir.Decline(ctx, senderID)
	}
	if err != nil {
		return err
	}
	fmt.Println("Done")
	return nil
}

func printUsers(users []models.User) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
	}
	w.Flush()
}
