package profile

// Profile describes how to drive one chat web client: where things live in
// its DOM and which words its interface uses.
type Profile struct {
	URL       string    `yaml:"url"`
	Selectors Selectors `yaml:"selectors"`
	Lexicon   Lexicon   `yaml:"lexicon"`
}

type Selectors struct {
	ChatList           string `yaml:"chat_list"`
	ChatTitle          string `yaml:"chat_title"` // fmt pattern, %s is the chat name
	Message            string `yaml:"message"`
	Recalled           string `yaml:"recalled"`
	DeletedPlaceholder string `yaml:"deleted_placeholder"`
	Text               string `yaml:"text"`
	Image              string `yaml:"image"`
	ExtraCountXPath    string `yaml:"extra_count_xpath"`
	DateLabelXPath     string `yaml:"date_label_xpath"`
	ShowMore           string `yaml:"show_more"`
	Viewer             string `yaml:"viewer"`
	ViewerImage        string `yaml:"viewer_image"`
	ViewerClose        string `yaml:"viewer_close"`
}

// Lexicon holds interface vocabulary. Weekdays and months are ordered
// Monday first and January first.
type Lexicon struct {
	Today       []string `yaml:"today"`
	Yesterday   []string `yaml:"yesterday"`
	Weekdays    []string `yaml:"weekdays"`
	Months      []string `yaml:"months"`
	Deleted     []string `yaml:"deleted"`
	LabelIgnore []string `yaml:"label_ignore"`
	ShowMore    []string `yaml:"show_more"`
}
