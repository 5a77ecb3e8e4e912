package compact

// Schemas holds one table per wire type.
type Schemas struct {
	Lesson   Schema
	Exam     Schema
	Homework Schema
	Absence  Schema
	Message  Schema
	Holiday  Schema
	TimeUnit Schema
}

// NewSchemas builds the tables. allowMarkdown controls free-text sanitizing.
func NewSchemas(allowMarkdown bool) Schemas {
	text := Sanitized(allowMarkdown)
	return Schemas{
		Lesson: Schema{
			"id":           {From: "id", Transform: Int, Default: 0},
			"lessonId":     {From: "lsnumber", Fallbacks: []string{"lessonId", "lsNumber"}, Transform: Int, Default: 0},
			"date":         {From: "date", Transform: Date, Default: 0},
			"startTime":    {From: "startTime", Fallbacks: []string{"start"}, Transform: Time, Default: 0},
			"endTime":      {From: "endTime", Fallbacks: []string{"end"}, Transform: Time, Default: 0},
			"su":           {From: "su", Fallbacks: []string{"subject", "subjects"}, Transform: ElementName, Default: ""},
			"suLong":       {From: "su", Fallbacks: []string{"subject", "subjects"}, Transform: ElementLongName, Default: ""},
			"te":           {From: "te", Fallbacks: []string{"teacher", "teachers"}, Transform: ElementName, Default: ""},
			"teLong":       {From: "te", Fallbacks: []string{"teacher", "teachers"}, Transform: ElementLongName, Default: ""},
			"ro":           {From: "ro", Fallbacks: []string{"room", "rooms"}, Transform: ElementName, Default: ""},
			"code":         {From: "code", Fallbacks: []string{"status", "cellState"}, Transform: String, Default: ""},
			"substText":    {From: "substText", Fallbacks: []string{"substitutionText"}, Transform: text, Default: ""},
			"lstext":       {From: "lstext", Fallbacks: []string{"info", "lessonText"}, Transform: text, Default: ""},
			"activityType": {From: "activityType", Transform: String, Default: ""},
		},
		Exam: Schema{
			"id":        {From: "id", Transform: Int, Default: 0},
			"examDate":  {From: "examDate", Fallbacks: []string{"date"}, Transform: Date, Default: 0},
			"startTime": {From: "startTime", Fallbacks: []string{"start"}, Transform: Time, Default: 0},
			"endTime":   {From: "endTime", Fallbacks: []string{"end"}, Transform: Time, Default: 0},
			"name":      {From: "name", Transform: text, Default: ""},
			"subject":   {From: "subject", Fallbacks: []string{"subjectName"}, Transform: text, Default: ""},
			"teachers":  {From: "teachers", Fallbacks: []string{"teacher"}, Transform: Names(2), Default: []string{}},
			"text":      {From: "text", Fallbacks: []string{"description"}, Transform: text, Default: ""},
			"examType":  {From: "examType", Transform: String, Default: ""},
		},
		Homework: Schema{
			"id":         {From: "id", Transform: Int, Default: 0},
			"lessonId":   {From: "lessonId", Transform: Int, Default: 0},
			"elementIds": {From: "elementIds", Transform: IDs, Default: []int{}},
			"date":       {From: "date", Transform: Date, Default: 0},
			"dueDate":    {From: "dueDate", Fallbacks: []string{"date"}, Transform: Date, Default: 0},
			"completed":  {From: "completed", Fallbacks: []string{"done"}, Transform: Bool, Default: false},
			"text":       {From: "text", Fallbacks: []string{"description", "remark"}, Transform: text, Default: ""},
			"remark":     {From: "remark", Transform: text, Default: ""},
			"subject":    {From: "subject", Fallbacks: []string{"su"}, Transform: ElementLongName, Default: ""},
		},
		Absence: Schema{
			"id":        {From: "id", Transform: Int, Default: 0},
			"date":      {From: "date", Fallbacks: []string{"startDate", "absenceDate", "day"}, Transform: Date, Default: 0},
			"endDate":   {From: "endDate", Transform: Date, Default: 0},
			"startTime": {From: "startTime", Fallbacks: []string{"start"}, Transform: Time, Default: 0},
			"endTime":   {From: "endTime", Fallbacks: []string{"end"}, Transform: Time, Default: 0},
			"reason":    {From: "reason", Fallbacks: []string{"text"}, Transform: text, Default: ""},
			"excused":   {From: "isExcused", Fallbacks: []string{"excused"}, Transform: Bool, Default: false},
			"subject":   {From: "subject", Fallbacks: []string{"subjectName"}, Transform: ElementName, Default: ""},
			"teacher":   {From: "teacher", Fallbacks: []string{"teacherName"}, Transform: ElementName, Default: ""},
			"lessonId":  {From: "lessonId", Fallbacks: []string{"lessonNumber", "periodId"}, Transform: Int, Default: 0},
		},
		Message: Schema{
			"id":         {From: "id", Transform: Int, Default: 0},
			"subject":    {From: "subject", Fallbacks: []string{"title"}, Transform: text, Default: ""},
			"text":       {From: "text", Fallbacks: []string{"content"}, Transform: text, Default: ""},
			"isExpanded": {From: "isExpanded", Fallbacks: []string{"expanded"}, Transform: Bool, Default: false},
		},
		Holiday: Schema{
			"id":        {From: "id", Transform: Int, Default: 0},
			"name":      {From: "name", Fallbacks: []string{"shortName"}, Transform: text, Default: ""},
			"longName":  {From: "longName", Fallbacks: []string{"longname", "name"}, Transform: text, Default: ""},
			"startDate": {From: "startDate", Transform: Date, Default: 0},
			"endDate":   {From: "endDate", Fallbacks: []string{"startDate"}, Transform: Date, Default: 0},
		},
		TimeUnit: Schema{
			"name":      {From: "name", Transform: String, Default: ""},
			"startTime": {From: "startTime", Transform: Time, Default: 0},
			"endTime":   {From: "endTime", Transform: Time, Default: 0},
		},
	}
}
