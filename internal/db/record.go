package db

type PostRecord struct {
	Id string `json:"id"`

	Bsn string `json:"bsn"`
	Sna string `json:"sna"`

	Title     string `json:"title"`
	LastFloor int    `json:"last_floor"`
}

type ReplyRecord struct {
	Id  string `json:"id"`
	Pid string `json:"pid"`

	FloorIndex int `json:"floor_index"`

	AuthorName  string `json:"author_name"`
	AuthorId    string `json:"author_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func postRecordId(bsn, sna string) string {
	return bsn + ":" + sna
}
