package inmemdb

import (
	"sync"

	"github.com/trezcool/fpms/core/evaluation"
	"github.com/trezcool/fpms/core/user"
)

type (
	DB struct {
		user       *userTable
		submission *submissionTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	submissionTable struct {
		mutex sync.RWMutex
		table map[string]*evaluation.Submission
		// (faculty, academic year) -> submission ID
		byFacultyYear map[facultyYearKey]string
	}

	facultyYearKey struct {
		facultyID    string
		academicYear string
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		submission: &submissionTable{
			table:         make(map[string]*evaluation.Submission),
			byFacultyYear: make(map[facultyYearKey]string),
		},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.submission.mutex.Lock()
	db.submission.table = make(map[string]*evaluation.Submission)
	db.submission.byFacultyYear = make(map[facultyYearKey]string)
	db.submission.mutex.Unlock()
}
