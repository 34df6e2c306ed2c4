package request

type GetCourseFiles struct {
	Ids []int64 `form:"ids" binding:"required,min=1,dive,gt=0"`
}

type GetFile struct {
	// Path name hash
	Id string `uri:"id" binding:"required,alphanum"`
}

type GetFileUpdates struct {
	Since string `form:"since" binding:"required,iso8601"`
}

type GetContent struct {
	Id        int64  `form:"id" binding:"required,gt=0"`
	Component string `form:"component" binding:"required,alphanumext"`
	Table     string `form:"table" binding:"required,alphanumext"`
	Field     string `form:"field" binding:"required,alphanumext"`
	CourseId  int64  `form:"courseid" binding:"required,gt=0"`
}
