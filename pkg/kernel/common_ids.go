package kernel

type OrganizerID string

func NewOrganizerID(id string) OrganizerID { return OrganizerID(id) }
func (o OrganizerID) String() string       { return string(o) }
func (o OrganizerID) IsEmpty() bool        { return string(o) == "" }

type BrandID string

func NewBrandID(id string) BrandID { return BrandID(id) }
func (b BrandID) String() string   { return string(b) }
func (b BrandID) IsEmpty() bool    { return string(b) == "" }

type ExhibitionID string

func NewExhibitionID(id string) ExhibitionID { return ExhibitionID(id) }
func (e ExhibitionID) String() string        { return string(e) }
func (e ExhibitionID) IsEmpty() bool         { return string(e) == "" }
