package db

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"student-analytics-server-go/models"
)

const (
	StudentsSheet = "Students"
	MarksSheet    = "Marks"
)

// Import columns, after a header row
const (
	colRoll = iota
	colName
	colClass
	colSubject
	colObtained
	colMax
)

var (
	studentsHeader = []interface{}{"Roll No", "Name", "Class", "Avg Score", "Grade"}
	marksHeader    = []interface{}{"Roll No", "Name", "Subject", "Marks", "Max Marks", "Percentage"}
)

// ImportStudentsFromExcel reads students from the first sheet of a workbook.
//
// Columns are Roll Number, Name, Class, Subject, Marks Obtained and Max Marks; the first
// row is a header. Rows with the same roll number are merged into one student, an empty
// class falls back to className and the subject columns may be left out. Rows that cannot
// be turned into a valid student or mark are skipped and counted.
func ImportStudentsFromExcel(file io.Reader, className string, logger log.Logger) ([]models.Student, int, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, 0, errors.Wrap(err, "opening excel file")
	}
	defer func() {
		if err := f.Close(); err != nil {
			_ = level.Warn(logger).Log("msg", "error closing excel file", "err", err)
		}
	}()

	// Data is read from the first sheet
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "reading rows from sheet %s", sheetName)
	}

	var (
		students []models.Student
		index    = make(map[string]int)
		skipped  int
	)
	for i, row := range rows {
		if i == 0 || blankRow(row) {
			continue
		}

		roll, name, class := cell(row, colRoll), cell(row, colName), cell(row, colClass)
		if class == "" {
			class = models.CleanString(className)
		}

		idx, ok := index[roll]
		if !ok {
			s, err := models.NewStudent(roll, name, class)
			if err != nil {
				_ = level.Warn(logger).Log("msg", "skipping row", "row", i+1, "err", err)
				skipped++
				continue
			}
			if err := addRowMark(s, row); err != nil {
				_ = level.Warn(logger).Log("msg", "skipping row", "row", i+1, "err", err)
				skipped++
				continue
			}
			index[s.RollNumber] = len(students)
			students = append(students, *s)
			continue
		}

		if err := addRowMark(&students[idx], row); err != nil {
			_ = level.Warn(logger).Log("msg", "skipping row", "row", i+1, "err", err)
			skipped++
		}
	}

	_ = level.Info(logger).Log("msg", "excel import parsed", "sheet", sheetName, "students", len(students), "skipped", skipped)
	if students == nil {
		students = []models.Student{}
	}
	return students, skipped, nil
}

// addRowMark records the row's mark on s, if the row has a subject.
func addRowMark(s *models.Student, row []string) error {
	subject := cell(row, colSubject)
	if subject == "" {
		return nil
	}
	obtained, err := strconv.ParseFloat(cell(row, colObtained), 64)
	if err != nil {
		return errors.Wrapf(models.ErrInvalidInput, "marks obtained %q", cell(row, colObtained))
	}
	max, err := strconv.ParseFloat(cell(row, colMax), 64)
	if err != nil {
		return errors.Wrapf(models.ErrInvalidInput, "max marks %q", cell(row, colMax))
	}
	return s.AddMark(subject, obtained, max)
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return models.CleanString(row[col])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ExportWorkbook builds a workbook with a Students sheet (one row per student,
// with average and grade) and a Marks sheet (one row per mark).
func ExportWorkbook(students []models.Student, scale *models.GradeScale) (*excelize.File, error) {
	if scale == nil {
		scale = models.StandardScale
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), StudentsSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "naming students sheet")
	}
	if _, err := f.NewSheet(MarksSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "creating marks sheet")
	}

	if err := writeSheet(f, StudentsSheet, studentsHeader, studentRows(students, scale)); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, MarksSheet, marksHeader, markRows(students)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook streams the export workbook to w.
func WriteWorkbook(w io.Writer, students []models.Student, scale *models.GradeScale) error {
	f, err := ExportWorkbook(students, scale)
	if err != nil {
		return err
	}
	defer f.Close()
	return errors.Wrap(f.Write(w), "writing workbook")
}

func studentRows(students []models.Student, scale *models.GradeScale) [][]interface{} {
	rows := make([][]interface{}, 0, len(students))
	for _, s := range students {
		rows = append(rows, []interface{}{
			s.RollNumber, s.Name, s.ClassName, round2(s.AverageScore()), s.Grade(scale),
		})
	}
	return rows
}

func markRows(students []models.Student) [][]interface{} {
	var rows [][]interface{}
	for _, s := range students {
		for _, m := range s.Marks {
			rows = append(rows, []interface{}{
				s.RollNumber, s.Name, m.Subject, m.MarksObtained, m.MaxMarks, round2(m.Percentage()),
			})
		}
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "writing %s header", sheet)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return errors.Wrap(err, "header range")
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return errors.Wrapf(err, "styling %s header", sheet)
	}

	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "row coordinates")
		}
		row := row
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+2)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
