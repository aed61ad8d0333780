package catalog

// DemoRecords is the starter catalog the memory backend loads in
// development.
func DemoRecords() []Record {
	return []Record{
		{Title: "Introduction to Algorithms", Author: "Thomas H. Cormen", CoverColor: "#1e3a8a", Department: "Computer Science", TotalCopies: 3},
		{Title: "Clean Code", Author: "Robert C. Martin", CoverColor: "#065f46", Department: "Computer Science", TotalCopies: 2},
		{Title: "Principles of Anatomy and Physiology", Author: "Gerard J. Tortora", CoverColor: "#7f1d1d", Department: "Medicine", TotalCopies: 4},
		{Title: "Engineering Mathematics", Author: "K. A. Stroud", CoverColor: "#78350f", Department: "Engineering", TotalCopies: 2},
		{Title: "Things Fall Apart", Author: "Chinua Achebe", CoverColor: "#4c1d95", Department: "Literature", TotalCopies: 1},
	}
}
