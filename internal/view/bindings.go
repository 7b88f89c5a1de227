package view

// Bindings holds every element the engine touches, resolved once.
// Rows and total cells are looked up on demand because the list is re-rendered.
type Bindings struct {
	Grade      Select
	ClassName  Select
	Semester   Select
	Competency Select
	Subject    Select
	TestScope  Select

	TestName   Input
	MaxPoints  Input
	TestDate   Input
	TestWeight Input
	EditTestID Input

	FilterGrade    Select
	FilterClass    Select
	FilterSemester Select
	FilterSubject  Select
	GlobalClass    Select
	GlobalSemester Select

	SubmitButton      Button
	DeleteButton      Button
	CreateTestsButton Button

	DefineTestsCard    Block
	TestsTable         Block
	NoSelectionMessage Block
	HeaderInfo         Block

	doc     Document
	missing []string
}

// Resolve looks every identifier up in doc
func Resolve(doc Document) *Bindings {
	b := &Bindings{doc: doc}

	sel := func(id string) Select {
		if s, ok := doc.Select(id); ok {
			return s
		}
		b.missing = append(b.missing, id)
		return nil
	}
	in := func(id string) Input {
		if i, ok := doc.Input(id); ok {
			return i
		}
		b.missing = append(b.missing, id)
		return nil
	}
	btn := func(id string) Button {
		if x, ok := doc.Button(id); ok {
			return x
		}
		b.missing = append(b.missing, id)
		return nil
	}
	blk := func(id string) Block {
		if x, ok := doc.Block(id); ok {
			return x
		}
		b.missing = append(b.missing, id)
		return nil
	}

	b.Grade = sel(IDGrade)
	b.ClassName = sel(IDClassName)
	b.Semester = sel(IDSemester)
	b.Competency = sel(IDCompetency)
	b.Subject = sel(IDSubject)
	b.TestScope = sel(IDTestScope)

	b.TestName = in(IDTestName)
	b.MaxPoints = in(IDMaxPoints)
	b.TestDate = in(IDTestDate)
	b.TestWeight = in(IDTestWeight)
	b.EditTestID = in(IDEditTestID)

	b.FilterGrade = sel(IDFilterGrade)
	b.FilterClass = sel(IDFilterClass)
	b.FilterSemester = sel(IDFilterSemester)
	b.FilterSubject = sel(IDFilterSubject)
	b.GlobalClass = sel(IDGlobalClassFilter)
	b.GlobalSemester = sel(IDGlobalSemesterFilter)

	b.SubmitButton = btn(IDSubmitButton)
	b.DeleteButton = btn(IDDeleteButton)
	b.CreateTestsButton = btn(IDCreateTestsButton)

	b.DefineTestsCard = blk(IDDefineTestsCard)
	b.TestsTable = blk(IDTestsTable)
	b.NoSelectionMessage = blk(IDNoSelectionMessage)
	b.HeaderInfo = blk(IDHeaderInfo)

	return b
}

// Missing lists identifiers the document did not render
func (b *Bindings) Missing() []string {
	return append([]string(nil), b.missing...)
}

// Rows returns the rendered test rows
func (b *Bindings) Rows() []Row {
	if b.doc == nil {
		return nil
	}
	return b.doc.Rows()
}

// TotalCell returns the totals cell of competency, or nil
func (b *Bindings) TotalCell(competency string) Block {
	if b.doc == nil {
		return nil
	}
	if c, ok := b.doc.TotalCell(competency); ok {
		return c
	}
	return nil
}

// On forwards event registration to the document
func (b *Bindings) On(kind EventKind, target string, fn func(Event)) {
	if b.doc == nil {
		return
	}
	b.doc.On(kind, target, fn)
}
