package colibri_test

import (
	"fmt"
	"log"

	"github.com/colibri-db/colibri"
)

// Example demonstrates building a table, querying it, and keeping a live
// view in sync across mutations.
func Example() {
	people, err := colibri.NewTable("people")
	if err != nil {
		log.Fatal(err)
	}
	defer people.Destroy()

	name, _ := people.AddStringColumn("name")
	age, _ := people.AddIntColumn("age")

	for _, p := range []struct {
		name string
		age  int64
	}{
		{"ada", 36}, {"brian", 41}, {"ada", 29},
	} {
		row, err := people.AddRow()
		if err != nil {
			log.Fatal(err)
		}
		_ = people.SetString(name, row, p.name)
		_ = people.SetInt(age, row, p.age)
	}

	// A search index answers repeated lookups without scanning.
	people.AddSearchIndex(name)
	fmt.Println("adas:", people.CountString(name, "ada"))

	// Views stay safe across mutations and catch up on demand.
	view, err := people.FindAllString(name, "ada")
	if err != nil {
		log.Fatal(err)
	}
	defer view.Close()

	_ = people.SetString(name, 1, "ada")
	fmt.Println("in sync:", view.IsInSync())

	if _, err := view.SyncIfNeeded(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("rows:", view.Size())

	// Output:
	// adas: 2
	// in sync: false
	// rows: 3
}

// Example_sortedView demonstrates sort and distinct descriptors that
// re-apply on every sync.
func Example_sortedView() {
	fruit, err := colibri.NewTable("fruit")
	if err != nil {
		log.Fatal(err)
	}
	defer fruit.Destroy()

	name, _ := fruit.AddStringColumn("name")
	for _, s := range []string{"cherry", "apple", "banana", "apple"} {
		row, _ := fruit.AddRow()
		_ = fruit.SetString(name, row, s)
	}

	view, err := fruit.SortedView(colibri.Ascending(colibri.Col(name)))
	if err != nil {
		log.Fatal(err)
	}
	defer view.Close()

	if err := view.Distinct(colibri.Col(name)); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < view.Size(); i++ {
		fmt.Println(view.GetString(name, i))
	}

	// Output:
	// apple
	// banana
	// cherry
}
