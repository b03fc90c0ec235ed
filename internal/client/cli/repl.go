package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var printlnFn = fmt.Println

type execIface interface {
	isLoggedIn() bool
	run(fn func() error) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context, args []string) error
	ListMedications(ctx context.Context) error
	AddMedication(ctx context.Context) error
	EditMedication(ctx context.Context, args []string) error
	DeleteMedication(ctx context.Context, args []string) error
	Today(ctx context.Context) error
	Toggle(ctx context.Context, args []string) error
	MarkAll(ctx context.Context, args []string) error
	ListAppointments(ctx context.Context) error
	AddAppointment(ctx context.Context) error
	SetStatus(ctx context.Context, args []string) error
	DeleteAppointment(ctx context.Context, args []string) error
	Undo(ctx context.Context) error
	Seed(ctx context.Context) error
	Clear(ctx context.Context, args []string) error
	Admin(ctx context.Context, args []string) error
}

const helpText = `Commands:
  register                    create an account and sign in
  login | logout              start or end a session
  profile [new name]          show or rename your profile
  today                       today's dose schedule
  toggle <med> <HH:MM> [date] flip a dose between taken and not taken
  markall <med>               mark every dose of a medication taken today
  meds                        list medications
  addmed | editmed <med> | delmed <med>
  appts                       list appointments
  addappt | delappt <appt>
  status <appt> <pending|done|missed>
  undo                        restore the last deleted record
  seed                        add sample data to an empty tracker
  clear <collection>          delete every medication, med-log or appointment
  admin [user]                list users, or show one user's records
  help | exit`

// runREPL reads commands from r, which prompts of the commands share, so
// they must not wrap the same input in another buffer.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status := statusFn()
		if status != "" {
			fmt.Printf("%s > ", status)
		} else {
			fmt.Print("> ")
		}

		line, rerr := r.ReadString('\n')
		if rerr != nil && !(errors.Is(rerr, io.EOF) && line != "") {
			if errors.Is(rerr, io.EOF) {
				printlnFn("bye")
				return nil
			}
			return rerr
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		var quit bool
		err := a.run(func() (err error) {
			quit, err = dispatch(ctx, a, cmd, args)
			return err
		})
		if quit {
			return nil
		}
		if err != nil {
			printlnFn("error:", err)
		}
	}
}

// dispatch runs cmd. quit is set by the exit commands.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) (quit bool, err error) {
	switch cmd {
	case "help", "?":
		printlnFn(helpText)
	case "register":
		if a.isLoggedIn() {
			printlnFn("already logged in, logout first")
			return false, nil
		}
		err = a.Register(ctx)
	case "login":
		if a.isLoggedIn() {
			printlnFn("already logged in")
			return false, nil
		}
		err = a.Login(ctx)
	case "logout":
		if !a.isLoggedIn() {
			printlnFn("not logged in")
			return false, nil
		}
		err = a.Logout(ctx)
	case "profile":
		err = a.Profile(ctx, args)
	case "meds", "list":
		err = a.ListMedications(ctx)
	case "addmed":
		err = a.AddMedication(ctx)
	case "editmed":
		err = a.EditMedication(ctx, args)
	case "delmed":
		err = a.DeleteMedication(ctx, args)
	case "today":
		err = a.Today(ctx)
	case "toggle":
		err = a.Toggle(ctx, args)
	case "markall":
		err = a.MarkAll(ctx, args)
	case "appts":
		err = a.ListAppointments(ctx)
	case "addappt":
		err = a.AddAppointment(ctx)
	case "status":
		err = a.SetStatus(ctx, args)
	case "delappt":
		err = a.DeleteAppointment(ctx, args)
	case "undo":
		err = a.Undo(ctx)
	case "seed":
		err = a.Seed(ctx)
	case "clear":
		err = a.Clear(ctx, args)
	case "admin":
		err = a.Admin(ctx, args)
	case "exit", "quit":
		printlnFn("bye")
		return true, nil
	default:
		printlnFn("unknown command:", cmd, "(type help)")
	}
	return false, err
}
