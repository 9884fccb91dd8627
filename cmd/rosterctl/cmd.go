package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"student-analytics-server-go/analytics"
	"student-analytics-server-go/db"
	"student-analytics-server-go/models"
	"student-analytics-server-go/roster"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	roster *roster.Roster
	engine *analytics.Engine
	out    io.Writer
	logger log.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  add -roll ROLL -name NAME -class CLASS                      - add a student")
	fmt.Fprintln(cli.out, "  remove -roll ROLL                                            - remove a student")
	fmt.Fprintln(cli.out, "  mark -roll ROLL -subject SUBJECT -obtained N -max N          - record a mark")
	fmt.Fprintln(cli.out, "  list                                                         - list all students")
	fmt.Fprintln(cli.out, "  report -roll ROLL                                            - print a student's report")
	fmt.Fprintln(cli.out, "  analytics [-top N] [-threshold N]                            - print class analytics")
	fmt.Fprintln(cli.out, "  import -file FILE.xlsx [-class CLASS]                        - import students from a spreadsheet")
	fmt.Fprintln(cli.out, "  export -file FILE.xlsx                                       - export students to a spreadsheet")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addCmd := cli.newFlagSet("add")
	addRoll := addCmd.String("roll", "", "The student's roll number")
	addName := addCmd.String("name", "", "The student's name")
	addClass := addCmd.String("class", "", "The student's class")

	removeCmd := cli.newFlagSet("remove")
	removeRoll := removeCmd.String("roll", "", "The student's roll number")

	markCmd := cli.newFlagSet("mark")
	markRoll := markCmd.String("roll", "", "The student's roll number")
	markSubject := markCmd.String("subject", "", "The subject name")
	markObtained := markCmd.Float64("obtained", -1, "Marks obtained")
	markMax := markCmd.Float64("max", 0, "Maximum marks")

	listCmd := cli.newFlagSet("list")

	reportCmd := cli.newFlagSet("report")
	reportRoll := reportCmd.String("roll", "", "The student's roll number")

	analyticsCmd := cli.newFlagSet("analytics")
	analyticsTop := analyticsCmd.Int("top", cli.engine.TopN, "Number of top performers")
	analyticsThreshold := analyticsCmd.Float64("threshold", cli.engine.AttentionThreshold, "Average below which a student needs attention")

	importCmd := cli.newFlagSet("import")
	importFile := importCmd.String("file", "", "The .xlsx file to import")
	importClass := importCmd.String("class", "", "Class for rows that leave it empty")

	exportCmd := cli.newFlagSet("export")
	exportFile := exportCmd.String("file", "", "The .xlsx file to write")

	switch args[1] {
	case "add":
		if err := addCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addRoll == "" || *addName == "" || *addClass == "" {
			addCmd.Usage()
			return errHelp
		}
		return cli.addStudent(*addRoll, *addName, *addClass)
	case "remove":
		if err := removeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *removeRoll == "" {
			removeCmd.Usage()
			return errHelp
		}
		return cli.roster.RemoveStudent(*removeRoll)
	case "mark":
		if err := markCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *markRoll == "" || *markSubject == "" {
			markCmd.Usage()
			return errHelp
		}
		return cli.roster.AddMarkToStudent(*markRoll, *markSubject, *markObtained, *markMax)
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return err
		}
		cli.listStudents()
		return nil
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportRoll == "" {
			reportCmd.Usage()
			return errHelp
		}
		return cli.studentReport(*reportRoll)
	case "analytics":
		if err := analyticsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *analyticsTop < 0 || math.IsNaN(*analyticsThreshold) || *analyticsThreshold < 0 || *analyticsThreshold > 100 {
			analyticsCmd.Usage()
			return errHelp
		}
		engine := *cli.engine
		engine.TopN = *analyticsTop
		engine.AttentionThreshold = *analyticsThreshold
		fmt.Fprint(cli.out, engine.Summarize(cli.roster.ListStudents()))
		return nil
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importFile, *importClass)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportFile == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.exportStudents(*exportFile)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addStudent(roll, name, class string) error {
	s, err := models.NewStudent(roll, name, class)
	if err != nil {
		return err
	}
	added, err := cli.roster.AddStudent(*s)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("student with roll number %q already exists", s.RollNumber)
	}
	fmt.Fprintf(cli.out, "added %s (%s)\n", s.Name, s.RollNumber)
	return nil
}

func (cli *commandLine) listStudents() {
	students := cli.roster.ListStudents()
	if len(students) == 0 {
		fmt.Fprintln(cli.out, "No students.")
		return
	}
	for _, s := range students {
		fmt.Fprintf(cli.out, "%-10s %-20s %-10s %6.2f %s\n",
			s.RollNumber, s.Name, s.ClassName, s.AverageScore(), s.Grade(cli.engine.Scale))
	}
}

func (cli *commandLine) studentReport(roll string) error {
	s, ok := cli.roster.GetStudent(roll)
	if !ok {
		return roster.ErrStudentNotFound
	}
	fmt.Fprint(cli.out, cli.engine.StudentReport(s))
	return nil
}

func (cli *commandLine) importStudents(path, class string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	students, skipped, err := db.ImportStudentsFromExcel(f, class, cli.logger)
	if err != nil {
		return err
	}
	added, err := cli.roster.ImportStudents(students)
	if err != nil {
		return err
	}
	_ = level.Info(cli.logger).Log("msg", "import finished", "file", path, "added", added, "skipped", skipped)
	fmt.Fprintf(cli.out, "imported %d students (%d already present, %d rows skipped)\n",
		added, len(students)-added, skipped)
	return nil
}

func (cli *commandLine) exportStudents(path string) error {
	students := cli.roster.ListStudents()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := db.WriteWorkbook(f, students, cli.engine.Scale); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "exported %d students to %s\n", len(students), path)
	return nil
}
